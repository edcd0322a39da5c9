package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/models"
)

const selectCredential = `
		SELECT c.id, c.email, c.password_hash, c.status, c.auth_provider, c.notification_token,
		       c.created_at, c.updated_at,
		       p.full_name, p.profile_picture, p.date_of_birth, p.country_code, p.phone_number,
		       p.created_at, p.updated_at
		FROM user_credentials c
		JOIN user_profiles p ON p.id = c.id
	`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.UserCredential, error) {
	return r.findOne(ctx, selectCredential+` WHERE c.email = $1`, email)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.UserCredential, error) {
	return r.findOne(ctx, selectCredential+` WHERE c.id = $1`, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*models.UserCredential, error) {
	c := &models.UserCredential{Profile: &models.UserProfile{}}
	p := c.Profile

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.Email, &c.PasswordHash, &c.Status, &c.AuthProvider, &c.NotificationToken,
		&c.CreatedAt, &c.UpdatedAt,
		&p.FullName, &p.ProfilePicture, &p.DateOfBirth, &p.CountryCode, &p.PhoneNumber,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.ID = c.ID
	return c, nil
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_credentials WHERE email = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.UserCredential) error {
	query := `
		INSERT INTO user_credentials (id, email, password_hash, status, auth_provider, notification_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Email, c.PasswordHash, string(c.Status), string(c.AuthProvider), c.NotificationToken,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
