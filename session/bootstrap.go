package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lunchvote/go-session-client/api"
	"github.com/lunchvote/go-session-client/credentials"
	"github.com/lunchvote/go-session-client/token"
)

// Initialize reconciles the three possible credential sources (redirect
// URL, credential store, nothing) into the initial session state. It runs
// exactly once per Manager; later calls are no-ops. The returned URL has
// every credential and social parameter scrubbed, and the caller must
// replace any record of the redirect with it so the parameters are never
// re-processed or leaked.
//
// A redirect-sourced credential pair overrides the store. With no usable
// access credential the session becomes SocialSignupPending when the
// redirect carried a social payload, Unauthenticated otherwise. A valid
// access credential authenticates immediately with minimal identity and
// enriches the profile asynchronously; an expired one defers to the
// refresh exchange while the state reads Initializing.
func (m *Manager) Initialize(ctx context.Context, redirectURL string) (string, error) {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return redirectURL, nil
	}
	m.initialized = true
	generation := m.generation
	m.setStateLocked(State{Status: StatusInitializing})
	m.mu.Unlock()

	params, scrubbedURL, err := ParseRedirectParams(redirectURL)
	if err != nil {
		m.log.Warn().Err(err).Msg("session: unparseable redirect URL, ignoring")
	}

	if params.HasTokenPair() {
		// Redirect back from the identity provider: the URL pair wins
		// over whatever the store holds.
		m.store.Set(credentials.AccessTokenName, params.AccessToken, m.accessTTL)
		m.store.Set(credentials.RefreshTokenName, params.RefreshToken, m.refreshTTL)
	} else {
		// A lone token is not a usable pair.
		params.AccessToken, params.RefreshToken = "", ""
	}

	accessToken := params.AccessToken
	if accessToken == "" {
		accessToken, _ = m.store.Get(credentials.AccessTokenName)
	}

	if accessToken == "" {
		m.mu.Lock()
		// A logout that raced bootstrap already published; its state stands.
		if m.generation == generation {
			if params.Social != nil {
				m.setStateLocked(State{Status: StatusSocialSignupPending, Social: params.Social})
			} else {
				m.setStateLocked(State{Status: StatusUnauthenticated})
			}
		}
		m.mu.Unlock()
		m.markReady()
		return scrubbedURL, nil
	}

	claims, err := token.Decode(accessToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("session: access token is malformed, clearing credentials")
		m.mu.Lock()
		m.teardownLocked()
		m.mu.Unlock()
		m.markReady()
		return scrubbedURL, nil
	}

	if claims.ExpiresAt > m.nowFunc().Unix() {
		m.mu.Lock()
		if m.generation != generation {
			// A logout raced bootstrap; publishing Authenticated now would
			// resurrect a session whose credentials are already cleared.
			m.mu.Unlock()
			m.markReady()
			return scrubbedURL, nil
		}
		m.setStateLocked(State{
			Status: StatusAuthenticated,
			User:   minimalUser(claims, params.Social),
			Social: params.Social,
		})
		m.mu.Unlock()
		m.markReady()
		go m.enrichProfile(ctx, generation)
		return scrubbedURL, nil
	}

	// Expired: the state stays Initializing while the refresh exchange
	// runs. Carry the social payload so the refreshed session keeps the
	// display fields until enrichment.
	if params.Social != nil {
		m.mu.Lock()
		m.setStateLocked(State{Status: StatusInitializing, Social: params.Social})
		m.mu.Unlock()
	}
	// Refresh publishes the resulting state and schedules the profile
	// fetch itself.
	if _, err := m.Refresh(ctx); err != nil {
		m.log.Warn().Err(err).Msg("session: refresh during bootstrap failed")
	}
	m.markReady()
	return scrubbedURL, nil
}

// CompleteSignup finishes local registration from SocialSignupPending:
// the backend issues a credential pair, the session authenticates with it
// and the profile is fetched. A failed signup tears the session down so no
// half-registered credentials linger.
func (m *Manager) CompleteSignup(ctx context.Context, req api.SignupRequest) error {
	pair, err := m.backend.Signup(ctx, req)
	if err != nil {
		m.mu.Lock()
		m.teardownLocked()
		m.mu.Unlock()
		return errors.Wrap(err, "[Manager.CompleteSignup] backend.Signup")
	}

	claims, err := token.Decode(pair.AccessToken)
	if err != nil {
		m.mu.Lock()
		m.teardownLocked()
		m.mu.Unlock()
		return errors.Wrap(err, "[Manager.CompleteSignup] decode issued access token")
	}

	m.mu.Lock()
	m.store.Set(credentials.AccessTokenName, pair.AccessToken, m.accessTTL)
	m.store.Set(credentials.RefreshTokenName, pair.RefreshToken, m.refreshTTL)
	generation := m.generation
	m.setStateLocked(State{
		Status: StatusAuthenticated,
		User: minimalUser(claims, &SocialProfile{
			Email:        req.Email,
			Provider:     req.Provider,
			ProviderID:   req.ProviderID,
			ProfileImage: req.ProfileImage,
			Name:         req.Name,
			Username:     req.Username,
		}),
	})
	m.mu.Unlock()

	go m.enrichProfile(ctx, generation)
	return nil
}
