// Package store holds the PostgreSQL queries behind every Starling entity.
// Lookups return (nil, nil) when the row does not exist.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"starling/internal/models"
)

// UserStore reads and writes admin accounts.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const selectUser = `
	SELECT id, email, password_hash, display_name, role,
	       totp_secret, totp_enabled, created_at, updated_at
	FROM users`

func (s *UserStore) one(ctx context.Context, what, query string, args ...any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role,
		&u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.one(ctx, "find user by email", selectUser+` WHERE email = $1`, email)
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.one(ctx, "find user", selectUser+` WHERE id = $1`, id)
}

// Create stores a new account. The password is kept only as a bcrypt hash.
func (s *UserStore) Create(ctx context.Context, email, password, displayName string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var id uuid.UUID
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		email, string(hash), displayName, role,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return s.FindByID(ctx, id)
}

// SetTOTPSecret records the secret shown during enrollment. 2FA stays off
// until EnableTOTP.
func (s *UserStore) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	return s.touch(ctx, "set totp secret", `totp_secret = $2`, userID, secret)
}

// EnableTOTP is called after the first valid code.
func (s *UserStore) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	return s.touch(ctx, "enable totp", `totp_enabled = TRUE`, userID)
}

func (s *UserStore) touch(ctx context.Context, what, set string, userID uuid.UUID, args ...any) error {
	q := `UPDATE users SET ` + set + `, updated_at = NOW() WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, q, append([]any{userID}, args...)...); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}
