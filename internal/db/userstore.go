package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/resolver"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Postgres unique_violation.
const pqUniqueViolation = "23505"

// UserStore is the Postgres implementation of resolver.Store. The
// identities_provider_unique constraint carries the atomicity: racing
// writers for the same external identity serialize on it, and losers
// surface resolver.ErrDuplicateIdentity.
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByProviderIdentity(
	ctx context.Context,
	provider string,
	providerUserID string,
) (*auth.User, error) {

	var user auth.User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.role
		FROM users u
		JOIN identities i ON i.user_id = u.id
		WHERE i.provider = $1
		  AND i.provider_user_id = $2
	`, provider, providerUserID).Scan(&user.ID, &user.Email, &user.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) FindByEmail(
	ctx context.Context,
	email string,
) (*auth.User, error) {

	var user auth.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, role
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&user.ID, &user.Email, &user.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts the user row and its identity mapping in one
// transaction. Any unique violation (identity pair or email) means a
// concurrent writer got there first.
func (s *UserStore) CreateUser(
	ctx context.Context,
	identity *auth.Identity,
) (*auth.User, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var userID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, email_verified, display_name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, identity.Email, identity.EmailVerified, identity.DisplayName).Scan(&userID)
	if err != nil {
		return nil, duplicateOr(err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT identities_provider_unique DO NOTHING
	`, userID, identity.Provider, identity.ProviderUserID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, resolver.ErrDuplicateIdentity
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &auth.User{
		ID:    userID.String(),
		Email: identity.Email,
		Role:  "user",
	}, nil
}

func (s *UserStore) LinkIdentity(
	ctx context.Context,
	userID string,
	identity *auth.Identity,
) error {

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT identities_provider_unique DO NOTHING
	`, userID, identity.Provider, identity.ProviderUserID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return resolver.ErrDuplicateIdentity
	}
	return nil
}

func (s *UserStore) RefreshEmail(
	ctx context.Context,
	userID string,
	email string,
) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, email)
	if err != nil {
		return fmt.Errorf("refresh email for user %s: %w", userID, err)
	}
	return nil
}

// duplicateOr converts a Postgres unique violation into the portable
// duplicate sentinel, passing other errors through.
func duplicateOr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return resolver.ErrDuplicateIdentity
	}
	return err
}
