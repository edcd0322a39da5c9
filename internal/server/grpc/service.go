package grpc

import (
	"context"

	"github.com/dmitrijs2005/authgate/internal/server/models"
	"google.golang.org/grpc"
)

const (
	ServiceName = "authgate.v1.AuthService"

	MethodSignInWithEmail = "/" + ServiceName + "/SignInWithEmail"
	MethodSignUpWithEmail = "/" + ServiceName + "/SignUpWithEmail"
	MethodMe              = "/" + ServiceName + "/Me"
)

// DefaultAllowList lists the methods callable without a bearer token.
var DefaultAllowList = []string{
	MethodSignInWithEmail,
	MethodSignUpWithEmail,
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type MeRequest struct{}

type SignInReply struct {
	AccessToken  string                 `json:"accessToken"`
	RefreshToken string                 `json:"refreshToken"`
	ExpiresAt    int64                  `json:"expiresAt"`
	User         *models.UserCredential `json:"user"`
}

type UserReply struct {
	User *models.UserCredential `json:"user"`
}

// AuthServiceServer is the server side of authgate.v1.AuthService.
type AuthServiceServer interface {
	SignInWithEmail(ctx context.Context, req *SignInRequest) (*SignInReply, error)
	SignUpWithEmail(ctx context.Context, req *SignUpRequest) (*UserReply, error)
	Me(ctx context.Context, req *MeRequest) (*UserReply, error)
}

func unaryHandler[Req, Resp any](method string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var authServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SignInWithEmail",
			Handler:    unaryHandler(MethodSignInWithEmail, AuthServiceServer.SignInWithEmail),
		},
		{
			MethodName: "SignUpWithEmail",
			Handler:    unaryHandler(MethodSignUpWithEmail, AuthServiceServer.SignUpWithEmail),
		},
		{
			MethodName: "Me",
			Handler:    unaryHandler(MethodMe, AuthServiceServer.Me),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authgate/v1/auth",
}

// RegisterAuthServiceServer registers impl on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, impl AuthServiceServer) {
	s.RegisterService(&authServiceDesc, impl)
}
