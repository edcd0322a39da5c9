// Package credentials persists login identities (user_credentials) together
// with the profile they own.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

type Repository interface {
	// FindByEmail returns the credential with its profile, or
	// common.ErrorNotFound.
	FindByEmail(ctx context.Context, email string) (*models.UserCredential, error)
	FindByID(ctx context.Context, id string) (*models.UserCredential, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create inserts the credential row only; the profile must already exist.
	Create(ctx context.Context, c *models.UserCredential) error
}
