package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/gate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) SignInWithEmail(ctx context.Context, req *SignInRequest) (*SignInReply, error) {
	res, err := s.auth.SignInWithEmail(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "signed in", "user_id", res.Credential.ID)
	return &SignInReply{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt.Unix(),
		User:         res.Credential,
	}, nil
}

func (s *GRPCServer) SignUpWithEmail(ctx context.Context, req *SignUpRequest) (*UserReply, error) {
	cred, err := s.auth.SignUpWithEmail(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "registered", "user_id", cred.ID)
	return &UserReply{User: cred}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *MeRequest) (*UserReply, error) {
	p, ok := gate.PrincipalFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no principal")
	}

	cred, err := s.users.Me(ctx, p.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &UserReply{User: cred}, nil
}

// toStatus maps service errors onto gRPC codes. Unclassified errors are
// logged and reported as a bare Internal.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	reason := common.Reason(err)

	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, reason)
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, reason)
	case errors.Is(err, common.ErrorInvalidInput):
		return status.Error(codes.InvalidArgument, reason)
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		s.logger.Error(ctx, "rpc failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
