package gate

import (
	"context"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

// RoleUser is granted to every authenticated principal.
const RoleUser = "ROLE_USER"

// Principal is the authenticated identity attached to a request context.
type Principal struct {
	ID          string
	Email       string
	Provider    models.AuthProvider
	Authorities []string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by the gate, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
