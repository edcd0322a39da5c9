package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authgate/internal/server/auth"
)

// PasswordHasher turns secrets into digests and checks candidates against
// them.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(plain, digest string) bool
}

// IdentityVerifier checks a third-party identity token and returns its claims.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// TokenIssuer mints session tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}
