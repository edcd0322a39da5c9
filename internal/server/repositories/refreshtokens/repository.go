// Package refreshtokens persists the opaque refresh tokens handed out at
// sign-in and rotated on every refresh.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

type Repository interface {
	// Create stores token for userID, valid until expiresAt.
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// Consume removes token and returns the row it held, or
	// common.ErrorNotFound when no such token exists. Of several callers
	// consuming the same token, only one gets the row.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a token. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
}
