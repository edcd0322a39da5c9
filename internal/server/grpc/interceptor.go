package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/gate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

var authorizationKey = strings.ToLower(common.AuthorizationHeaderName)

// authInterceptor applies the gate to every method outside the allow-list,
// reading the bearer credential from the "authorization" metadata.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.allow.Allowed(info.FullMethod) {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(authorizationKey); len(values) > 0 {
			header = values[0]
		}
	}

	principal, err := s.gate.Authenticate(ctx, header)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Warn(ctx, "rpc rejected", "method", info.FullMethod, "reason", common.Reason(err))
		}
		return nil, s.toStatus(ctx, err)
	}

	return handler(gate.WithPrincipal(ctx, principal), req)
}
