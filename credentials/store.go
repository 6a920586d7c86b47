package credentials

import (
	"context"
	"time"
)

// Well-known credential names. The backend issues exactly this pair.
const (
	AccessTokenName  = "accessToken"
	RefreshTokenName = "refreshToken"
)

// Store is the single source of truth for session credentials, shared by
// every process using the same profile directory. Reads and writes never
// fail from the caller's point of view; an unavailable backing store
// behaves as permanently empty.
type Store interface {
	// Get returns the named credential, or false if it is absent or expired.
	Get(name string) (string, bool)
	// Set persists a credential with an expiry, overwriting silently.
	Set(name, value string, ttl time.Duration)
	// Clear removes a credential. Clearing an absent credential is a no-op.
	Clear(name string)
}

// Watcher is implemented by stores that can notify about external changes
// to the backing storage (another process writing or clearing credentials).
type Watcher interface {
	// Watch emits a signal whenever the backing storage changes. The
	// channel is closed when ctx is cancelled. An error means change
	// notifications are unavailable and the caller should poll instead.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// NullStore is the store used when no profile directory is usable, for
// example in an ephemeral execution context. All operations silently no-op.
type NullStore struct{}

// NewNullStore creates a store whose credentials are permanently absent.
func NewNullStore() *NullStore { return &NullStore{} }

func (*NullStore) Get(string) (string, bool) { return "", false }

func (*NullStore) Set(string, string, time.Duration) {}

func (*NullStore) Clear(string) {}
