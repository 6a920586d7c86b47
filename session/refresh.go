package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lunchvote/go-session-client/api"
	"github.com/lunchvote/go-session-client/credentials"
	"github.com/lunchvote/go-session-client/token"
)

var (
	// ErrNoRefreshToken means a refresh was attempted with no refresh
	// credential present. This is a caller bug, not a retryable condition;
	// the session is torn down immediately.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrSessionSuperseded means the session was logged out or torn down
	// while an exchange was in flight, so its result was discarded.
	ErrSessionSuperseded = errors.New("session superseded")
)

type refreshCall struct {
	done chan struct{}
	pair *api.TokenPair
	err  error
}

// Refresh exchanges the refresh credential for a new pair. Concurrent
// callers coalesce into a single exchange: many backends invalidate a
// refresh credential on first use, so two parallel exchanges with the
// same credential must never be issued. On success both credentials are
// stored and Authenticated is published in the same locked step; an
// already-enriched profile survives the rotation, while a session still
// on minimal identity gets the profile fetch scheduled. On any failure
// the session is torn down.
func (m *Manager) Refresh(ctx context.Context) (*api.TokenPair, error) {
	m.mu.Lock()
	if call := m.inflightRefresh; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.pair, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if _, ok := m.store.Get(credentials.RefreshTokenName); !ok {
		m.teardownLocked()
		m.mu.Unlock()
		return nil, ErrNoRefreshToken
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflightRefresh = call
	generation := m.generation
	social := m.state.Social
	prevUser := m.state.User
	m.setStateLocked(State{Status: StatusInitializing, User: prevUser, Social: social})
	m.mu.Unlock()

	pair, err := m.backend.Refresh(ctx)

	m.mu.Lock()
	m.inflightRefresh = nil
	switch {
	case m.generation != generation:
		// Logged out or torn down while the exchange ran; the result must
		// not be applied against the replacement state.
		call.err = ErrSessionSuperseded
	case err != nil:
		m.teardownLocked()
		call.err = errors.Wrap(err, "[Manager.Refresh] backend.Refresh")
	default:
		claims, decodeErr := token.Decode(pair.AccessToken)
		if decodeErr != nil {
			m.teardownLocked()
			call.err = errors.Wrap(decodeErr, "[Manager.Refresh] decode issued access token")
		} else {
			m.store.Set(credentials.AccessTokenName, pair.AccessToken, m.accessTTL)
			m.store.Set(credentials.RefreshTokenName, pair.RefreshToken, m.refreshTTL)
			// Rotation changes credentials, not identity: an enriched
			// profile is carried over unchanged.
			user := prevUser
			if user == nil || user.UserID < 0 {
				user = minimalUser(claims, social)
			}
			m.setStateLocked(State{
				Status: StatusAuthenticated,
				User:   user,
				Social: social,
			})
			call.pair = pair
			if user.UserID < 0 {
				go m.enrichProfile(ctx, m.generation)
			}
		}
	}
	m.mu.Unlock()

	close(call.done)
	return call.pair, call.err
}

// enrichProfile replaces the minimal identity with the full record from
// the backend. A 401 means the session is not actually valid and forces
// the same teardown as a rejected refresh; any other failure leaves the
// session authenticated with minimal identity. The generation check stops
// a stale fetch from touching a session that was torn down meanwhile.
func (m *Manager) enrichProfile(ctx context.Context, generation uint64) {
	info, err := m.backend.AccountInfo(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		return
	}
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			m.log.Warn().Msg("session: backend rejected the session, tearing down")
			m.teardownLocked()
			return
		}
		m.log.Warn().Err(err).Msg("session: profile fetch failed, keeping minimal identity")
		return
	}
	if m.state.Status != StatusAuthenticated {
		return
	}
	// Full profile in hand: the social payload has served its purpose.
	m.setStateLocked(State{Status: StatusAuthenticated, User: info})
}
