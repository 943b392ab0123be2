package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/agroconnect/marketplace-auth/internal/client/authapi"
	"github.com/agroconnect/marketplace-auth/internal/client/sessionstore"
	"github.com/agroconnect/marketplace-auth/internal/core/domain"
	"github.com/agroconnect/marketplace-auth/internal/token"
)

// DefaultRevalidateWindow is how close to expiry a credential must be before
// Revalidate contacts the server.
const DefaultRevalidateWindow = time.Hour

// DefaultRevalidateInterval is the RunRevalidation tick used when the caller
// passes a non-positive interval.
const DefaultRevalidateInterval = 30 * time.Minute

var (
	ErrAlreadyBootstrapped = errors.New("session already bootstrapped")
	ErrNotAuthenticated    = errors.New("no active session")
	// ErrSuperseded is returned when a logout (or another login) landed while
	// the call was in flight; its result was discarded.
	ErrSuperseded = errors.New("session changed while request was in flight")
)

// Remote is the subset of the auth API the machine drives.
type Remote interface {
	Register(ctx context.Context, reg domain.Registration) (*authapi.AuthResult, error)
	Login(ctx context.Context, email, password string) (*authapi.AuthResult, error)
	Profile(ctx context.Context, token string) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.Identity, error)
}

// Machine is safe for concurrent use. Every transition happens under mu;
// remote calls are made outside it and their continuations are dropped when
// epoch moved on in the meantime.
type Machine struct {
	remote Remote
	store  sessionstore.Store
	log    zerolog.Logger
	now    func() time.Time
	window time.Duration

	// authMu serialises Login, Register and UpdateProfile. Logout never
	// takes it so it cannot be blocked by a slow request.
	authMu        sync.Mutex
	revalidations singleflight.Group

	mu           sync.Mutex
	state        State
	token        string
	identity     *domain.Identity
	epoch        uint64
	bootstrapped bool
}

type Option func(*Machine)

func WithLogger(log zerolog.Logger) Option {
	return func(m *Machine) { m.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func WithRevalidateWindow(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.window = d
		}
	}
}

func New(remote Remote, store sessionstore.Store, opts ...Option) *Machine {
	m := &Machine{
		remote: remote,
		store:  store,
		log:    zerolog.Nop(),
		now:    time.Now,
		window: DefaultRevalidateWindow,
		state:  Unauthenticated,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{State: m.state, Identity: m.identity.Snapshot()}
}

// Token returns the credential currently held, if any.
func (m *Machine) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Bootstrap restores the persisted session. It may run once per Machine.
// When a credential is found the cached identity is surfaced immediately in
// the Bootstrapping state and the server check runs in the background; the
// returned channel is closed once the machine has settled.
func (m *Machine) Bootstrap(ctx context.Context) (<-chan struct{}, error) {
	done := make(chan struct{})

	m.mu.Lock()
	if m.bootstrapped {
		m.mu.Unlock()
		return nil, ErrAlreadyBootstrapped
	}
	m.bootstrapped = true

	snap, err := m.store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("session store unreadable; starting signed out")
		m.resetLocked(Unauthenticated)
		m.mu.Unlock()
		close(done)
		return done, nil
	}
	if snap.Empty() {
		m.state = Unauthenticated
		m.mu.Unlock()
		close(done)
		return done, nil
	}
	if _, err := token.Decode(snap.Token); err != nil {
		m.log.Debug().Err(err).Msg("stored credential unreadable")
		m.resetLocked(Expired)
		m.mu.Unlock()
		close(done)
		return done, nil
	}
	if token.IsExpired(snap.Token, m.now()) {
		m.log.Info().Msg("stored credential expired")
		m.resetLocked(Expired)
		m.mu.Unlock()
		close(done)
		return done, nil
	}

	m.epoch++
	epoch := m.epoch
	m.token = snap.Token
	m.identity = snap.Identity
	m.state = Bootstrapping
	m.mu.Unlock()

	go func() {
		defer close(done)
		identity, err := m.profile(ctx, snap.Token)
		m.settleBootstrap(epoch, snap.Token, identity, err)
	}()
	return done, nil
}

func (m *Machine) settleBootstrap(epoch uint64, tkn string, identity *domain.Identity, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch || m.state != Bootstrapping {
		m.log.Debug().Msg("discarding stale bootstrap result")
		return
	}

	if err == nil {
		m.refreshLocked(tkn, identity)
		m.log.Debug().Str("identity_id", identity.ID).Msg("session confirmed")
		return
	}

	switch Classify(err) {
	case ClassNetwork:
		if m.identity != nil {
			m.state = AuthenticatedStale
			m.log.Info().Err(err).Msg("server unreachable; using cached identity")
			return
		}
		// Keep the credential so the next start can retry it.
		m.token = ""
		m.state = Unauthenticated
		m.log.Info().Err(err).Msg("server unreachable and no cached identity")
	case ClassAuth:
		m.log.Info().Err(err).Msg("stored credential rejected")
		m.resetLocked(Unauthenticated)
	default:
		m.log.Warn().Err(err).Msg("session check failed; signing out")
		m.resetLocked(Unauthenticated)
	}
}

func (m *Machine) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	return m.authenticate(ctx, "login", func(ctx context.Context) (*authapi.AuthResult, error) {
		return m.remote.Login(ctx, email, password)
	})
}

func (m *Machine) Register(ctx context.Context, reg domain.Registration) (*domain.Identity, error) {
	return m.authenticate(ctx, "register", func(ctx context.Context) (*authapi.AuthResult, error) {
		return m.remote.Register(ctx, reg)
	})
}

// authenticate leaves the machine untouched on failure. On success the
// store is written before the state changes.
func (m *Machine) authenticate(ctx context.Context, op string, call func(context.Context) (*authapi.AuthResult, error)) (*domain.Identity, error) {
	m.authMu.Lock()
	defer m.authMu.Unlock()

	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	res, err := call(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Token == "" || res.Identity == nil {
		return nil, fmt.Errorf("%s: %w: incomplete response", op, domain.ErrServerFault)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		m.log.Debug().Str("op", op).Msg("discarding result superseded by logout")
		return nil, ErrSuperseded
	}
	if err := m.store.Save(sessionstore.Snapshot{Token: res.Token, Identity: res.Identity}); err != nil {
		return nil, fmt.Errorf("%s: persist session: %w", op, err)
	}

	m.epoch++
	m.token = res.Token
	m.identity = res.Identity.Snapshot()
	m.state = Authenticated
	m.log.Info().Str("identity_id", res.Identity.ID).Str("op", op).Msg("signed in")
	return m.identity.Snapshot(), nil
}

// Logout always succeeds locally and never waits on the network. Any
// request still in flight will have its result discarded.
func (m *Machine) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.epoch++
	err := m.store.Clear()
	m.token = ""
	m.identity = nil
	m.state = Unauthenticated
	if err != nil {
		m.log.Warn().Err(err).Msg("clear session store")
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Revalidate checks a held credential against the clock and, when it is
// close to expiry or unconfirmed, against the server. Concurrent calls share
// one round-trip.
func (m *Machine) Revalidate(ctx context.Context) error {
	_, err, _ := m.revalidations.Do("revalidate", func() (any, error) {
		return nil, m.revalidate(ctx)
	})
	return err
}

func (m *Machine) revalidate(ctx context.Context) error {
	m.mu.Lock()
	state, tkn, epoch := m.state, m.token, m.epoch
	if state != Authenticated && state != AuthenticatedStale {
		m.mu.Unlock()
		return nil
	}
	now := m.now()
	if token.IsExpired(tkn, now) {
		m.log.Info().Msg("credential expired")
		m.resetLocked(Expired)
		m.mu.Unlock()
		return nil
	}
	if state == Authenticated && !token.IsExpiringWithin(tkn, now, m.window) {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	identity, err := m.profile(ctx, tkn)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.state != state {
		m.log.Debug().Msg("discarding stale revalidation result")
		return nil
	}

	if err == nil {
		m.refreshLocked(tkn, identity)
		return nil
	}
	switch Classify(err) {
	case ClassNetwork:
		m.state = AuthenticatedStale
		return nil
	case ClassAuth:
		m.log.Info().Err(err).Msg("credential rejected on revalidation")
		m.resetLocked(Expired)
		return nil
	}
	return err
}

// RunRevalidation calls Revalidate every interval until ctx is done.
func (m *Machine) RunRevalidation(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRevalidateInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Revalidate(ctx); err != nil {
				m.log.Warn().Err(err).Msg("revalidation failed")
			}
		}
	}
}

// UpdateProfile sends a partial update with the held credential. An AUTH
// rejection ends the session; a NETWORK failure is returned and the session
// is kept.
func (m *Machine) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.Identity, error) {
	m.authMu.Lock()
	defer m.authMu.Unlock()

	m.mu.Lock()
	state, tkn, epoch := m.state, m.token, m.epoch
	m.mu.Unlock()
	if tkn == "" || (state != Authenticated && state != AuthenticatedStale) {
		return nil, ErrNotAuthenticated
	}

	identity, err := m.remote.UpdateProfile(ctx, tkn, update)
	if err == nil && identity == nil {
		err = fmt.Errorf("update profile: %w: empty identity", domain.ErrServerFault)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return nil, ErrSuperseded
	}
	if err != nil {
		if Classify(err) == ClassAuth {
			m.log.Info().Err(err).Msg("credential rejected on profile update")
			m.resetLocked(Unauthenticated)
		}
		return nil, err
	}

	m.refreshLocked(tkn, identity)
	return m.identity.Snapshot(), nil
}

func (m *Machine) profile(ctx context.Context, tkn string) (*domain.Identity, error) {
	identity, err := m.remote.Profile(ctx, tkn)
	if err == nil && identity == nil {
		return nil, fmt.Errorf("profile: %w: empty identity", domain.ErrServerFault)
	}
	return identity, err
}

// refreshLocked adopts a server-confirmed identity.
func (m *Machine) refreshLocked(tkn string, identity *domain.Identity) {
	if err := m.store.Save(sessionstore.Snapshot{Token: tkn, Identity: identity}); err != nil {
		m.log.Warn().Err(err).Msg("persist refreshed identity")
	}
	m.token = tkn
	m.identity = identity.Snapshot()
	m.state = Authenticated
}

// resetLocked discards the credential and snapshot.
func (m *Machine) resetLocked(next State) {
	if err := m.store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("clear session store")
	}
	m.token = ""
	m.identity = nil
	m.state = next
}
