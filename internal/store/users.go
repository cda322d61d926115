// Package store implements the persistence layer over Postgres.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mailbridge/mailbridge/internal/apierror"
	"github.com/mailbridge/mailbridge/internal/models"
)

const uniqueViolation = "23505"

// Users is the credential store: one row per local user, holding the current
// OAuth token pair.
type Users struct {
	pool *pgxpool.Pool
}

func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

// GetByEmail returns the user with the given email, or nil when absent.
func (s *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, google_id, access_token, refresh_token, is_active, created_at
		FROM users
		WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.GoogleID, &u.AccessToken, &u.RefreshToken, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return &u, nil
}

// Create inserts a new credential record and fills in its assigned id.
func (s *Users) Create(ctx context.Context, u *models.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, google_id, access_token, refresh_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at`,
		u.Email, u.Name, u.GoogleID, u.AccessToken, u.RefreshToken,
	).Scan(&u.ID, &u.IsActive, &u.CreatedAt)
	return storeError(err)
}

// UpdateCredentials persists rotated tokens and any backfilled identity
// fields for an existing user.
func (s *Users) UpdateCredentials(ctx context.Context, u *models.User) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET name = $2, google_id = $3, access_token = $4, refresh_token = $5
		WHERE id = $1`,
		u.ID, u.Name, u.GoogleID, u.AccessToken, u.RefreshToken,
	)
	return storeError(err)
}

// storeError maps driver failures into the API error vocabulary. Unique
// violations surface as conflicts; everything else is a database error.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apierror.Integrity(err)
	}
	return apierror.Database(err)
}
