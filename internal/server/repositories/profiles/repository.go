// Package profiles persists user profiles (user_profiles).
package profiles

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.UserProfile) error
	FindAll(ctx context.Context, page models.Page) ([]*models.UserProfile, error)
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id string) (*models.UserProfile, error)
	UpdatePicture(ctx context.Context, id, picture string, at time.Time) error
}
