package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"
	"github.com/cswitzer/OverboardTodosApp/internal/logger"
)

// Resolver determines which internal user an external identity belongs
// to. It is the ONLY place where identity-to-user mapping logic lives.
type Resolver interface {
	Resolve(ctx context.Context, identity *auth.Identity) (*auth.User, error)
}

// StoreResolver resolves identities against a Store, handling
// concurrent first-login races: the loser of a create race observes
// and returns the winner's row instead of failing.
type StoreResolver struct {
	store Store
}

func New(store Store) *StoreResolver {
	return &StoreResolver{store: store}
}

func (r *StoreResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (*auth.User, error) {

	if identity == nil || identity.Provider == "" || identity.ProviderUserID == "" {
		return nil, errors.New("resolver: identity is incomplete")
	}

	// 1. Known identity: return the mapped user, refreshing mutable
	// fields when the provider reports new values.
	user, err := r.store.FindByProviderIdentity(
		ctx, identity.Provider, identity.ProviderUserID)
	if err != nil {
		return nil, storageErr(err)
	}
	if user != nil {
		return r.refresh(ctx, user, identity), nil
	}

	// 2. Known email, new provider: link the identity to the
	// existing account.
	if identity.Email != "" {
		user, err = r.store.FindByEmail(ctx, identity.Email)
		if err != nil {
			return nil, storageErr(err)
		}
		if user != nil {
			err = r.store.LinkIdentity(ctx, user.ID, identity)
			switch {
			case err == nil:
				return user, nil
			case errors.Is(err, ErrDuplicateIdentity):
				return r.rereadWinner(ctx, identity)
			default:
				return nil, storageErr(err)
			}
		}
	}

	// 3. First login: create user + mapping atomically. A concurrent
	// first-login loses on the uniqueness constraint and re-reads.
	user, err = r.store.CreateUser(ctx, identity)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, ErrDuplicateIdentity):
		return r.rereadWinner(ctx, identity)
	default:
		return nil, storageErr(err)
	}
}

// rereadWinner fetches the row written by the writer that won a
// create/link race.
func (r *StoreResolver) rereadWinner(
	ctx context.Context,
	identity *auth.Identity,
) (*auth.User, error) {
	user, err := r.store.FindByProviderIdentity(
		ctx, identity.Provider, identity.ProviderUserID)
	if err != nil {
		return nil, storageErr(err)
	}
	if user == nil {
		// Lost the race but the winner's row is gone; nothing sane
		// to return.
		return nil, fmt.Errorf("%w: identity mapping vanished after conflict",
			auth.ErrStorageUnavailable)
	}
	return user, nil
}

// refresh updates mutable profile fields. Failures here do not fail
// the login; the stale value is corrected on a later attempt.
func (r *StoreResolver) refresh(
	ctx context.Context,
	user *auth.User,
	identity *auth.Identity,
) *auth.User {
	if identity.Email == "" || identity.Email == user.Email {
		return user
	}
	if err := r.store.RefreshEmail(ctx, user.ID, identity.Email); err != nil {
		logger.Warn("failed to refresh user email", map[string]any{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return user
	}
	user.Email = identity.Email
	return user
}

func storageErr(err error) error {
	if errors.Is(err, auth.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", auth.ErrStorageUnavailable, err)
}
