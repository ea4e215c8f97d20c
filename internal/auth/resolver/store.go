package resolver

import (
	"context"
	"errors"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"
)

// ErrDuplicateIdentity is reported by Store.CreateUser and
// Store.LinkIdentity when another writer claimed the same
// (provider, provider_user_id) pair first. The resolver treats it as
// "someone else won the race" and re-reads the winner's row.
var ErrDuplicateIdentity = errors.New("identity already mapped to a user")

// Store is the storage collaborator for identity-to-user mapping.
// Implementations must guarantee uniqueness of
// (provider, provider_user_id) across concurrent writers.
type Store interface {
	// FindByProviderIdentity returns the user owning the identity,
	// or (nil, nil) when no mapping exists.
	FindByProviderIdentity(
		ctx context.Context,
		provider string,
		providerUserID string,
	) (*auth.User, error)

	// FindByEmail returns the user with the given email, or
	// (nil, nil) when absent. Used for linking a new provider to an
	// existing account.
	FindByEmail(ctx context.Context, email string) (*auth.User, error)

	// CreateUser creates a user row plus its identity mapping in one
	// atomic step. Fails with ErrDuplicateIdentity if the mapping
	// already exists.
	CreateUser(ctx context.Context, identity *auth.Identity) (*auth.User, error)

	// LinkIdentity attaches an identity mapping to an existing user.
	// Fails with ErrDuplicateIdentity if the mapping already exists.
	LinkIdentity(ctx context.Context, userID string, identity *auth.Identity) error

	// RefreshEmail updates the mutable email field on login.
	RefreshEmail(ctx context.Context, userID string, email string) error
}
