package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
	"github.com/agroconnect/marketplace-auth/internal/core/ports"
)

// AuthService implements registration, login, credential verification and
// profile maintenance.
type AuthService struct {
	accounts ports.AccountDirectory
	hasher   ports.PasswordHasher
	issuer   ports.TokenIssuer
	resets   ports.ResetTracker
	queue    ports.ResetQueue
	log      zerolog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires the service. resets may be nil, in which case
// forgot-password requests are only logged.
func NewAuthService(
	accounts ports.AccountDirectory,
	hasher ports.PasswordHasher,
	issuer ports.TokenIssuer,
	resets ports.ResetTracker,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		issuer:   issuer,
		resets:   resets,
		log:      log,
		now:      time.Now,
	}
}

// Register creates an account and issues its first credential.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (string, *domain.Identity, error) {
	if reg.Email == "" || reg.Password == "" || strings.TrimSpace(reg.DisplayName) == "" {
		return "", nil, domain.ErrInvalidInput
	}
	if reg.Role == "" {
		reg.Role = domain.RoleProducer
	}
	if !reg.Role.SelfAssignable() {
		return "", nil, domain.ErrInvalidRole
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.accounts.Create(ctx, &domain.Identity{
		Email:        reg.Email,
		PasswordHash: hash,
		DisplayName:  reg.DisplayName,
		Role:         reg.Role,
		Phone:        reg.Phone,
		Address:      reg.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", nil, err
	}

	tkn, _, err := s.issuer.Issue(created)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().Str("identity_id", created.ID).Str("role", string(created.Role)).Msg("account registered")
	return tkn, created.Snapshot(), nil
}

// Login exchanges email and password for a credential. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Identity, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	identity, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		// Burn a comparison so a miss costs the same as a wrong password.
		_ = s.hasher.Compare(s.unknownAccountHash(), password)
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if s.hasher.Compare(identity.PasswordHash, password) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	tkn, _, err := s.issuer.Issue(identity)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().Str("identity_id", identity.ID).Msg("login succeeded")
	return tkn, identity.Snapshot(), nil
}

// Verify resolves a credential to its identity. Any signature or expiry
// problem surfaces as domain.ErrUnauthorized; a valid credential whose
// account no longer exists surfaces as domain.ErrNotFound.
func (s *AuthService) Verify(ctx context.Context, raw string) (*domain.Identity, error) {
	if raw == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := s.issuer.Verify(raw)
	if err != nil {
		s.log.Debug().Err(err).Msg("credential rejected")
		return nil, err
	}

	identity, err := s.accounts.FindByID(ctx, claims.SubjectID())
	if err != nil {
		return nil, err
	}
	return identity.Snapshot(), nil
}

// UpdateProfile re-verifies the credential and applies the present,
// non-empty fields. An update with nothing to change returns the stored
// identity.
func (s *AuthService) UpdateProfile(ctx context.Context, raw string, update domain.ProfileUpdate) (*domain.Identity, error) {
	identity, err := s.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	update = update.Changes()
	if update.Empty() {
		return identity, nil
	}

	updated, err := s.accounts.UpdateProfile(ctx, identity.ID, update)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("identity_id", updated.ID).Msg("profile updated")
	return updated.Snapshot(), nil
}

// UseResetQueue moves forgot-password processing off the request path.
func (s *AuthService) UseResetQueue(q ports.ResetQueue) {
	s.queue = q
}

// ForgotPassword accepts a reset request. It never reports whether the
// account exists; reset delivery itself is not implemented.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrInvalidInput
	}
	if s.queue != nil {
		if !s.queue.Enqueue(email) {
			s.log.Warn().Msg("reset queue full; request dropped")
		}
		return nil
	}
	return s.ProcessReset(ctx, email)
}

// ProcessReset looks the account up and records the request, collapsing
// repeats inside the throttle window.
func (s *AuthService) ProcessReset(ctx context.Context, email string) error {
	identity, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Debug().Msg("password reset requested for unknown account")
		return nil
	}
	if err != nil {
		return err
	}

	if s.resets == nil {
		s.log.Info().Str("identity_id", identity.ID).Msg("password reset requested")
		return nil
	}

	first, err := s.resets.Track(ctx, identity.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("identity_id", identity.ID).Msg("reset tracking failed")
		return nil
	}
	if !first {
		s.log.Debug().Str("identity_id", identity.ID).Msg("duplicate password reset request collapsed")
		return nil
	}
	s.log.Info().Str("identity_id", identity.ID).Msg("password reset requested")
	return nil
}

func (s *AuthService) unknownAccountHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("agroconnect-unknown-account")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
