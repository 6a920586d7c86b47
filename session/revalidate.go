package session

import (
	"context"
	"time"

	"github.com/lunchvote/go-session-client/credentials"
	"github.com/lunchvote/go-session-client/token"
)

// Revalidate reconciles the published state with the credential store.
// The store is shared across processes, so another one may have logged
// out or refreshed independently; this is the hook to call when the
// application regains foreground focus. An expired access credential
// triggers the refresh exchange.
func (m *Manager) Revalidate(ctx context.Context) error {
	m.mu.Lock()
	if !m.initialized || m.state.Status == StatusInitializing {
		m.mu.Unlock()
		return nil
	}

	accessToken, ok := m.store.Get(credentials.AccessTokenName)
	if !ok {
		if m.state.Status == StatusAuthenticated {
			m.log.Info().Msg("session: credentials cleared externally, logging out locally")
			m.generation++
			m.setStateLocked(State{Status: StatusUnauthenticated})
		}
		m.mu.Unlock()
		return nil
	}

	if token.IsValidAt(accessToken, m.nowFunc()) {
		if m.state.Status != StatusAuthenticated {
			// Another process signed in or completed a refresh.
			if claims, err := token.Decode(accessToken); err == nil {
				generation := m.generation
				social := m.state.Social
				m.setStateLocked(State{
					Status: StatusAuthenticated,
					User:   minimalUser(claims, social),
					Social: social,
				})
				m.mu.Unlock()
				go m.enrichProfile(ctx, generation)
				return nil
			}
		}
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	_, err := m.Refresh(ctx)
	return err
}

// Run keeps the session reconciled in the background until ctx is
// cancelled: it revalidates on credential-store change notifications when
// the store supports them, and on a fixed interval either way. The
// interval is the only staleness bound when change notifications are
// unavailable.
func (m *Manager) Run(ctx context.Context) error {
	var changes <-chan struct{}
	if watcher, ok := m.store.(credentials.Watcher); ok {
		ch, err := watcher.Watch(ctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("session: store watching unavailable, relying on periodic revalidation")
		} else {
			changes = ch
		}
	}

	ticker := time.NewTicker(m.revalidateEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.Revalidate(ctx); err != nil {
				m.log.Warn().Err(err).Msg("session: periodic revalidation failed")
			}
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if err := m.Revalidate(ctx); err != nil {
				m.log.Warn().Err(err).Msg("session: revalidation after store change failed")
			}
		}
	}
}
