// Package grpc serves authgate.v1.AuthService over gRPC with a JSON codec.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/gate"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/services"
	"google.golang.org/grpc"
)

type AuthService interface {
	SignInWithEmail(ctx context.Context, email, password string) (*services.SignInResult, error)
	SignUpWithEmail(ctx context.Context, email, password, fullName string) (*models.UserCredential, error)
}

type UserService interface {
	Me(ctx context.Context, userID string) (*models.UserCredential, error)
}

type GRPCServer struct {
	address string
	auth    AuthService
	users   UserService
	gate    *gate.Gate
	allow   *gate.AllowList
	logger  logging.Logger
}

func NewGRPCServer(address string, l logging.Logger, as AuthService, us UserService, g *gate.Gate, allow *gate.AllowList) *GRPCServer {
	return &GRPCServer{
		address: address,
		logger:  l.With("module", "grpc_server"),
		auth:    as,
		users:   us,
		gate:    g,
		allow:   allow,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.authInterceptor))
	RegisterAuthServiceServer(srv, s)
	return srv
}

// Run listens on the configured address until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and stops gracefully when ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}
