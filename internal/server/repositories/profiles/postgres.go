package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/models"
)

const selectProfile = `
		SELECT id, full_name, profile_picture, date_of_birth, country_code, phone_number, created_at, updated_at
		FROM user_profiles
	`

type scanner interface {
	Scan(dest ...any) error
}

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (id, full_name, profile_picture, date_of_birth, country_code, phone_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.FullName, p.ProfilePicture, p.DateOfBirth, p.CountryCode, p.PhoneNumber, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindAll returns one page of profiles, newest first.
func (r *PostgresRepository) FindAll(ctx context.Context, page models.Page) ([]*models.UserProfile, error) {
	query := selectProfile + ` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.UserProfile, 0, page.Size)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// FindByID returns the profile or common.ErrorNotFound.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.UserProfile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, selectProfile+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// UpdatePicture stores the object key of the profile picture. A missing
// profile yields common.ErrorNotFound.
func (r *PostgresRepository) UpdatePicture(ctx context.Context, id, picture string, at time.Time) error {
	query := `
		UPDATE user_profiles
		SET profile_picture = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, picture, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func scanProfile(s scanner) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	err := s.Scan(&p.ID, &p.FullName, &p.ProfilePicture, &p.DateOfBirth, &p.CountryCode, &p.PhoneNumber,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
