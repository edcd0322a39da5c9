package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/config"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var allowedAvatarTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// AvatarUpload tells the client where to PUT a new profile picture.
type AvatarUpload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserService serves profile reads and profile picture uploads for
// authenticated users.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       *objectStore
	logger      logging.Logger
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		store:       &objectStore{config: cfg},
		logger:      logger.With("module", "users"),
		now:         time.Now,
	}
}

// ListProfiles returns one page of profiles with the overall total.
func (s *UserService) ListProfiles(ctx context.Context, page models.Page) (*models.PageResult[*models.UserProfile], error) {
	repo := s.repomanager.Profiles(s.db)

	items, err := repo.FindAll(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}

	return &models.PageResult[*models.UserProfile]{
		Items:      items,
		Page:       page.Number,
		Size:       page.Size,
		TotalItems: total,
	}, nil
}

// Me returns the credential (with profile) of the given user.
func (s *UserService) Me(ctx context.Context, userID string) (*models.UserCredential, error) {
	cred, err := s.repomanager.Credentials(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return cred, nil
}

// AvatarUploadURL reserves a fresh object key for the user's profile picture
// and returns a presigned PUT URL for it.
func (s *UserService) AvatarUploadURL(ctx context.Context, userID, contentType string) (*AvatarUpload, error) {
	ext, ok := allowedAvatarTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, common.InvalidInput("unsupported content type")
	}

	now := s.now()
	key := fmt.Sprintf("avatars/%s/%s.%s", userID, uuid.NewString(), ext)

	url, err := s.store.PutURL(ctx, key, contentType)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Profiles(s.db).UpdatePicture(ctx, userID, key, now.UTC()); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("update picture: %w", err)
	}

	s.logger.Info(ctx, "avatar upload url issued", "user_id", userID, "key", key)
	return &AvatarUpload{Key: key, URL: url, ExpiresAt: now.Add(presignExpiry)}, nil
}

// AvatarURL returns a presigned GET URL for the user's current picture.
func (s *UserService) AvatarURL(ctx context.Context, userID string) (string, error) {
	profile, err := s.repomanager.Profiles(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("find profile: %w", err)
	}
	if profile.ProfilePicture == nil || *profile.ProfilePicture == "" {
		return "", common.ErrorNotFound
	}
	return s.store.GetURL(ctx, *profile.ProfilePicture)
}
