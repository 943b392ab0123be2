package ports

import (
	"context"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
	"github.com/agroconnect/marketplace-auth/internal/token"
)

// AuthService is the server-side identity boundary. Verify is the single
// path by which a bearer credential is turned into an identity.
type AuthService interface {
	Register(ctx context.Context, reg domain.Registration) (string, *domain.Identity, error)
	Login(ctx context.Context, email, password string) (string, *domain.Identity, error)
	Verify(ctx context.Context, token string) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.Identity, error)
	ForgotPassword(ctx context.Context, email string) error
}

// TokenIssuer mints and authoritatively verifies bearer credentials.
type TokenIssuer interface {
	Issue(identity *domain.Identity) (string, *token.Claims, error)
	Verify(raw string) (*token.Claims, error)
}

// ResetQueue hands forgot-password requests to background workers. Enqueue
// must not block; false means the request was dropped.
type ResetQueue interface {
	Enqueue(email string) bool
}

// ResetProcessor handles one queued forgot-password request.
type ResetProcessor interface {
	ProcessReset(ctx context.Context, email string) error
}
