package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
	"github.com/agroconnect/marketplace-auth/internal/core/ports"
	"github.com/agroconnect/marketplace-auth/internal/token"
)

type stubDirectory struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Identity
	nextID  int
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{byEmail: make(map[string]*domain.Identity)}
}

func cloneIdentity(i *domain.Identity) *domain.Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func (r *stubDirectory) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[identity.Email]; exists {
		return nil, domain.ErrDuplicateAccount
	}
	r.nextID++
	c := cloneIdentity(identity)
	c.ID = fmt.Sprintf("id-%d", r.nextID)
	r.byEmail[c.Email] = c
	return cloneIdentity(c), nil
}

func (r *stubDirectory) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		return cloneIdentity(u), nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubDirectory) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			return cloneIdentity(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubDirectory) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			update.ApplyTo(u)
			return cloneIdentity(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubResets struct {
	seen map[string]bool
	err  error
}

func (r *stubResets) Track(_ context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if r.seen[id] {
		return false, nil
	}
	r.seen[id] = true
	return true, nil
}

func newTestService(dir *stubDirectory, resets ports.ResetTracker) *AuthService {
	return NewAuthService(dir, NewBcryptHasher(MinBcryptCost), token.NewIssuer("secret", 0), resets, zerolog.Nop())
}

func farmer() domain.Registration {
	return domain.Registration{
		Email:       "farmer@x.com",
		Password:    "secret",
		DisplayName: "Farmer Joe",
		Role:        domain.RoleProducer,
		Phone:       "555-0100",
	}
}

func TestAuthService_RegisterLoginVerify(t *testing.T) {
	dir := newStubDirectory()
	svc := newTestService(dir, nil)
	ctx := context.Background()

	regToken, identity, err := svc.Register(ctx, farmer())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if regToken == "" || identity.ID == "" {
		t.Fatalf("expected token and id, got %q %+v", regToken, identity)
	}
	if identity.PasswordHash != "" {
		t.Fatalf("password hash leaked in returned identity")
	}

	stored, _ := dir.FindByEmail(ctx, "farmer@x.com")
	if stored.PasswordHash == "secret" {
		t.Fatalf("expected password to be hashed")
	}
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	if err != nil || cost < MinBcryptCost {
		t.Fatalf("expected bcrypt cost >= %d, got %d (%v)", MinBcryptCost, cost, err)
	}

	loginToken, loggedIn, err := svc.Login(ctx, "farmer@x.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loggedIn.Role != domain.RoleProducer {
		t.Fatalf("unexpected role: %s", loggedIn.Role)
	}

	verified, err := svc.Verify(ctx, loginToken)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verified.Email != "farmer@x.com" || verified.ID != identity.ID {
		t.Fatalf("unexpected identity: %+v", verified)
	}
}

func TestAuthService_Register_DefaultsRoleToProducer(t *testing.T) {
	svc := newTestService(newStubDirectory(), nil)
	reg := farmer()
	reg.Role = ""

	_, identity, err := svc.Register(context.Background(), reg)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if identity.Role != domain.RoleProducer {
		t.Fatalf("expected producer, got %s", identity.Role)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestService(newStubDirectory(), nil)
	ctx := context.Background()

	reg := farmer()
	reg.Password = ""
	if _, _, err := svc.Register(ctx, reg); err != domain.ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	reg = farmer()
	reg.Role = domain.RoleAdministrator
	if _, _, err := svc.Register(ctx, reg); err != domain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole for administrator, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newTestService(newStubDirectory(), nil)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, farmer()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, _, err := svc.Register(ctx, farmer()); err != domain.ErrDuplicateAccount {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestAuthService_Login_DoesNotRevealAccountExistence(t *testing.T) {
	svc := newTestService(newStubDirectory(), nil)
	ctx := context.Background()
	_, _, _ = svc.Register(ctx, farmer())

	_, _, wrongPassword := svc.Login(ctx, "farmer@x.com", "badpass")
	_, _, unknownEmail := svc.Login(ctx, "ghost@x.com", "secret")

	if wrongPassword != domain.ErrInvalidCredentials || unknownEmail != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", wrongPassword, unknownEmail)
	}
}

func TestAuthService_Login_IsCaseSensitiveOnEmail(t *testing.T) {
	svc := newTestService(newStubDirectory(), nil)
	ctx := context.Background()
	_, _, _ = svc.Register(ctx, farmer())

	if _, _, err := svc.Login(ctx, "Farmer@x.com", "secret"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Verify_Rejections(t *testing.T) {
	dir := newStubDirectory()
	svc := newTestService(dir, nil)
	ctx := context.Background()

	if _, err := svc.Verify(ctx, ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for empty token, got %v", err)
	}
	if _, err := svc.Verify(ctx, "a.b.c"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for garbage, got %v", err)
	}

	expiredIssuer := token.NewIssuer("secret", time.Hour).WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	})
	_, identity, _ := svc.Register(ctx, farmer())
	stale, _, err := expiredIssuer.Issue(identity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(ctx, stale); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}

	orphan, _, _ := token.NewIssuer("secret", 0).Issue(&domain.Identity{ID: "missing"})
	if _, err := svc.Verify(ctx, orphan); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted account, got %v", err)
	}
}

func TestAuthService_UpdateProfile_Partial(t *testing.T) {
	svc := newTestService(newStubDirectory(), nil)
	ctx := context.Background()
	tkn, _, _ := svc.Register(ctx, farmer())

	updated, err := svc.UpdateProfile(ctx, tkn, domain.ProfileUpdate{Address: domain.Some("North Field")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Address != "North Field" {
		t.Fatalf("address not applied: %+v", updated)
	}
	if updated.DisplayName != "Farmer Joe" || updated.Phone != "555-0100" {
		t.Fatalf("absent fields changed: %+v", updated)
	}

	kept, err := svc.UpdateProfile(ctx, tkn, domain.ProfileUpdate{DisplayName: domain.Some(""), Phone: domain.Some("")})
	if err != nil {
		t.Fatalf("empty fields must not fail: %v", err)
	}
	if kept.DisplayName != "Farmer Joe" || kept.Phone != "555-0100" || kept.Address != "North Field" {
		t.Fatalf("empty fields changed the profile: %+v", kept)
	}
	if _, err := svc.UpdateProfile(ctx, "bogus", domain.ProfileUpdate{Phone: domain.Some("1")}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_ForgotPassword(t *testing.T) {
	resets := &stubResets{seen: make(map[string]bool)}
	svc := newTestService(newStubDirectory(), resets)
	ctx := context.Background()
	_, identity, _ := svc.Register(ctx, farmer())

	if err := svc.ForgotPassword(ctx, "ghost@x.com"); err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
	if len(resets.seen) != 0 {
		t.Fatalf("unknown email must not be tracked")
	}

	if err := svc.ForgotPassword(ctx, "farmer@x.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	if err := svc.ForgotPassword(ctx, "farmer@x.com"); err != nil {
		t.Fatalf("repeat forgot password failed: %v", err)
	}
	if !resets.seen[identity.ID] || len(resets.seen) != 1 {
		t.Fatalf("expected one tracked reset, got %v", resets.seen)
	}

	if err := svc.ForgotPassword(ctx, ""); err != domain.ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthService_ForgotPassword_TrackerFailureIsSilent(t *testing.T) {
	svc := newTestService(newStubDirectory(), &stubResets{err: errors.New("redis down")})
	ctx := context.Background()
	_, _, _ = svc.Register(ctx, farmer())

	if err := svc.ForgotPassword(ctx, "farmer@x.com"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

type stubQueue struct {
	accepted []string
	full     bool
}

func (q *stubQueue) Enqueue(email string) bool {
	if q.full {
		return false
	}
	q.accepted = append(q.accepted, email)
	return true
}

func TestAuthService_ForgotPassword_Queued(t *testing.T) {
	resets := &stubResets{seen: make(map[string]bool)}
	svc := newTestService(newStubDirectory(), resets)
	queue := &stubQueue{}
	svc.UseResetQueue(queue)
	ctx := context.Background()
	_, identity, _ := svc.Register(ctx, farmer())

	if err := svc.ForgotPassword(ctx, "farmer@x.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	if len(queue.accepted) != 1 || len(resets.seen) != 0 {
		t.Fatalf("expected request to be queued, not processed inline: %v %v", queue.accepted, resets.seen)
	}

	if err := svc.ProcessReset(ctx, queue.accepted[0]); err != nil {
		t.Fatalf("process reset failed: %v", err)
	}
	if !resets.seen[identity.ID] {
		t.Fatalf("expected reset to be tracked after processing")
	}

	queue.full = true
	if err := svc.ForgotPassword(ctx, "farmer@x.com"); err != nil {
		t.Fatalf("a full queue must not surface to the caller, got %v", err)
	}
}
