// Package session holds the authoritative client-side view of the
// authentication session: one state machine fed by the credential store,
// the redirect URL from a social login, and the backend's account
// endpoints. Everything else in the application observes this package
// instead of inspecting credentials directly, so "authenticated" always
// means decoded, non-expired and reconciled, never "a credential merely
// exists".
package session

import "github.com/lunchvote/go-session-client/api"

// Status enumerates the session states.
type Status string

const (
	// StatusUnauthenticated means no usable credentials exist.
	StatusUnauthenticated Status = "unauthenticated"
	// StatusInitializing means bootstrap or refresh is in flight. Callers
	// must treat this as unknown and wait rather than redirecting.
	StatusInitializing Status = "initializing"
	// StatusAuthenticated means a valid access credential is present.
	StatusAuthenticated Status = "authenticated"
	// StatusSocialSignupPending means an identity provider vouched for the
	// user but local registration has not been completed.
	StatusSocialSignupPending Status = "social_signup_pending"
)

// SocialProfile carries the identity fields an identity provider hands
// back through the redirect URL. It is cached for one-time form pre-fill
// and dropped once a full profile fetch lands.
type SocialProfile struct {
	Email        string
	Provider     string
	ProviderID   string
	ProfileImage string
	Name         string
	Username     string
}

// State is the published session state. User starts minimal (claims plus
// any social fields, for display only) and is replaced by the full record
// once profile enrichment succeeds.
type State struct {
	Status Status
	User   *api.UserInfo
	Social *SocialProfile
}

// Authenticated reports whether the state carries a reconciled session.
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated
}
