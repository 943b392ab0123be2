package ports

import (
	"context"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

// AccountDirectory persists identities keyed by email.
// Create must enforce email uniqueness atomically and report a clash as
// domain.ErrDuplicateAccount. Lookups report a miss as domain.ErrNotFound.
type AccountDirectory interface {
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Identity, error)
}

// PasswordHasher is the one-way credential store.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// ResetTracker records password-reset requests so repeated requests within a
// window are collapsed. Track reports whether this request is the first one.
type ResetTracker interface {
	Track(ctx context.Context, identityID string) (bool, error)
}
