package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/lunchvote/go-session-client/api"
	"github.com/lunchvote/go-session-client/credentials"
	"github.com/lunchvote/go-session-client/token"
)

const (
	defaultCredentialTTL      = 7 * 24 * time.Hour
	defaultRevalidateInterval = 5 * time.Minute
	subscriberBuffer          = 8
)

// Backend is the account surface of the meal-review backend that the
// session lifecycle depends on.
type Backend interface {
	Refresh(ctx context.Context) (*api.TokenPair, error)
	AccountInfo(ctx context.Context) (*api.UserInfo, error)
	Logout(ctx context.Context) error
	Signup(ctx context.Context, req api.SignupRequest) (*api.TokenPair, error)
}

// Deps holds the collaborators a Manager needs.
type Deps struct {
	Store   credentials.Store
	Backend Backend
	Log     zerolog.Logger
}

// Manager owns the in-memory session state for one process and keeps it
// reconciled with the credential store, which is the cross-process source
// of truth. Lifecycle: New, Initialize exactly once, optionally Run for
// background revalidation, Logout or context cancellation to finish.
type Manager struct {
	store           credentials.Store
	backend         Backend
	log             zerolog.Logger
	nowFunc         func() time.Time
	accessTTL       time.Duration
	refreshTTL      time.Duration
	revalidateEvery time.Duration

	ready     chan struct{}
	readyOnce sync.Once

	mu              sync.Mutex
	state           State
	subscribers     map[string]chan State
	initialized     bool
	generation      uint64
	inflightRefresh *refreshCall
}

// Option configures a Manager.
type Option func(*Manager)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(nowFunc func() time.Time) Option {
	return func(m *Manager) { m.nowFunc = nowFunc }
}

// WithRevalidateInterval sets how often Run re-checks the credential
// store when change notifications are unavailable.
func WithRevalidateInterval(interval time.Duration) Option {
	return func(m *Manager) { m.revalidateEvery = interval }
}

// WithCredentialTTL sets the persistence lifetime for stored credentials.
func WithCredentialTTL(access, refresh time.Duration) Option {
	return func(m *Manager) {
		m.accessTTL = access
		m.refreshTTL = refresh
	}
}

// New creates a session manager. The store and backend are required.
func New(deps Deps, options ...Option) (*Manager, error) {
	if deps.Store == nil {
		return nil, errors.New("[session.New] Store is required")
	}
	if deps.Backend == nil {
		return nil, errors.New("[session.New] Backend is required")
	}

	m := &Manager{
		store:           deps.Store,
		backend:         deps.Backend,
		log:             deps.Log,
		nowFunc:         time.Now,
		accessTTL:       defaultCredentialTTL,
		refreshTTL:      defaultCredentialTTL,
		revalidateEvery: defaultRevalidateInterval,
		ready:           make(chan struct{}),
		state:           State{Status: StatusInitializing},
		subscribers:     make(map[string]chan State),
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Current returns the published session state.
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns the current state and a channel of future transitions.
// The returned cancel function releases the subscription. Slow consumers
// never block publishing; transitions beyond the channel buffer are
// dropped and the consumer sees the latest state on its next receive of
// Current.
func (m *Manager) Subscribe() (State, <-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan State, subscriberBuffer)
	m.subscribers[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(sub)
		}
	}
	return m.state, ch, cancel
}

// WaitUntilReady blocks until bootstrap has reached a terminal state.
// Protected operations must wait on this rather than racing bootstrap.
func (m *Manager) WaitUntilReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Logout clears both credentials, synchronously publishes Unauthenticated
// and then notifies the backend. The notification is best effort; its
// failure is logged and swallowed because local logout must succeed
// regardless of network reachability.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.teardownLocked()
	m.mu.Unlock()

	if err := m.backend.Logout(ctx); err != nil {
		m.log.Warn().Err(err).Msg("session: logout notification failed")
	}
}

// teardownLocked reverts to the unauthenticated state: both credentials
// cleared and the transition published in the same step. Bumping the
// generation invalidates any in-flight async completion so it cannot
// apply state against the torn-down session.
func (m *Manager) teardownLocked() {
	m.generation++
	m.store.Clear(credentials.AccessTokenName)
	m.store.Clear(credentials.RefreshTokenName)
	m.setStateLocked(State{Status: StatusUnauthenticated})
}

func (m *Manager) setStateLocked(state State) {
	m.state = state
	for id, ch := range m.subscribers {
		select {
		case ch <- state:
		default:
			m.log.Debug().Str("subscriber", id).Msg("session: slow subscriber, transition dropped")
		}
	}
}

func (m *Manager) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

// minimalUser builds the cheap identity published before profile
// enrichment lands: the token subject plus any social-login display
// fields from the redirect.
func minimalUser(claims *token.Claims, social *SocialProfile) *api.UserInfo {
	user := &api.UserInfo{
		UserID:   -1, // placeholder until /account/info responds
		Username: claims.Subject,
		Name:     claims.Subject,
	}
	if social == nil {
		return user
	}
	if social.Username != "" {
		user.Username = social.Username
	} else if social.Name != "" {
		user.Username = social.Name
	}
	if social.Name != "" {
		user.Name = social.Name
	} else if social.Username != "" {
		user.Name = social.Username
	}
	user.Email = social.Email
	user.Provider = social.Provider
	user.ProviderID = social.ProviderID
	user.ProfileImage = social.ProfileImage
	return user
}
