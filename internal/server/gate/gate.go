// Package gate authenticates inbound requests. Every request that does not
// target an allow-listed path must carry "Authorization: Bearer <token>"
// for an existing, active identity; otherwise the request is handed to an
// ErrorResolver and never reaches the protected handler.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/models"
)

type TokenValidator interface {
	ExtractSubject(token string) (string, error)
	Validate(token, email string) bool
}

type IdentityLoader interface {
	LoadIdentity(ctx context.Context, email string) (*models.UserCredential, error)
}

// ErrorResolver renders an authentication failure. It is called at most
// once per rejected request.
type ErrorResolver interface {
	Resolve(w http.ResponseWriter, r *http.Request, err error)
}

type ErrorResolverFunc func(w http.ResponseWriter, r *http.Request, err error)

func (f ErrorResolverFunc) Resolve(w http.ResponseWriter, r *http.Request, err error) {
	f(w, r, err)
}

type Gate struct {
	allow      *AllowList
	tokens     TokenValidator
	identities IdentityLoader
	logger     logging.Logger
}

func New(allow *AllowList, tokens TokenValidator, identities IdentityLoader, logger logging.Logger) *Gate {
	return &Gate{
		allow:      allow,
		tokens:     tokens,
		identities: identities,
		logger:     logger.With("module", "gate"),
	}
}

// Allowed reports whether target bypasses authentication.
func (g *Gate) Allowed(target string) bool {
	return g.allow.Allowed(target)
}

// Authenticate runs the bearer checks on an Authorization header value and
// returns the principal, or an Unauthorized AuthError naming the first
// check that failed. A failing identity store is returned as is and is not
// a rejection.
func (g *Gate) Authenticate(ctx context.Context, header string) (*Principal, error) {
	scheme := common.BearerScheme

	if header == "" {
		return nil, common.Unauthorized("header empty")
	}
	if !strings.HasPrefix(header, scheme) {
		return nil, common.Unauthorized("missing bearer scheme")
	}
	if len(header) <= len(scheme) {
		return nil, common.Unauthorized("empty token")
	}
	if header[len(scheme)] != ' ' {
		return nil, common.Unauthorized("missing bearer scheme")
	}
	token := header[len(scheme)+1:]

	subject, err := g.tokens.ExtractSubject(token)
	if err != nil || subject == "" {
		return nil, common.Unauthorized("failed to extract claim")
	}

	identity, err := g.identities.LoadIdentity(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthorized("user not found")
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}

	if !g.tokens.Validate(token, identity.Email) || !identity.IsActive() {
		return nil, common.Unauthorized("user not found")
	}

	return &Principal{
		ID:          identity.ID,
		Email:       identity.Email,
		Provider:    identity.AuthProvider,
		Authorities: []string{RoleUser},
	}, nil
}

// Middleware forwards allow-listed requests untouched, authenticates the
// rest and stores the principal in the request context. Failures go to
// resolver exactly once and next is not called.
func (g *Gate) Middleware(resolver ErrorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.allow.Allowed(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := g.Authenticate(r.Context(), r.Header.Get(common.AuthorizationHeaderName))
			if err != nil {
				if errors.Is(err, common.ErrorUnauthorized) {
					g.logger.Warn(r.Context(), "request rejected",
						"method", r.Method, "path", r.URL.Path, "reason", common.Reason(err))
				} else {
					g.logger.Error(r.Context(), "authentication failed",
						"method", r.Method, "path", r.URL.Path, "error", err)
				}
				resolver.Resolve(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
