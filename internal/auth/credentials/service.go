package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"
	"github.com/cswitzer/OverboardTodosApp/internal/db"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("credentials already exist")
)

// Service manages password credentials for local accounts. OAuth
// logins never touch this path.
type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{db: db}
}

// Register creates (or reuses) the user row for the email and attaches
// password credentials to it.
func (s *Service) Register(
	ctx context.Context,
	email string,
	password string,
	displayName string,
) (string, error) {

	var userID uuid.UUID

	// 1. Find or create user by email
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&userID)

	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO users (email, email_verified, display_name)
			VALUES ($1, false, $2)
			RETURNING id
		`, email, displayName).Scan(&userID)
	}
	if err != nil {
		return "", storageErr(err)
	}

	// 2. Check if credentials already exist
	var exists bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM credentials WHERE user_id = $1
		)
	`, userID).Scan(&exists)
	if err != nil {
		return "", storageErr(err)
	}
	if exists {
		return "", ErrAlreadyRegistered
	}

	// 3. Hash and store
	hash, version, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash, hash_version)
		VALUES ($1, $2, $3)
	`, userID, hash, version)
	if err != nil {
		return "", storageErr(err)
	}

	return userID.String(), nil
}

// Authenticate verifies email+password and returns the user for token
// minting. Lookup and verification failures are indistinguishable to
// the caller.
func (s *Service) Authenticate(
	ctx context.Context,
	email string,
	password string,
) (*auth.User, error) {

	var (
		user         auth.User
		passwordHash string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.role, c.password_hash
		FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE LOWER(u.email) = LOWER($1)
	`, email).Scan(&user.ID, &user.Email, &user.Role, &passwordHash)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storageErr(err)
	}

	if err := VerifyPassword(passwordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", auth.ErrStorageUnavailable, err)
}
