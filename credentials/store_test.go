package credentials_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lunchvote/go-session-client/credentials"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := credentials.OpenStore(t.TempDir(), zerolog.Nop())

	_, ok := store.Get(credentials.AccessTokenName)
	require.False(t, ok)

	store.Set(credentials.AccessTokenName, "token-1", time.Hour)
	value, ok := store.Get(credentials.AccessTokenName)
	require.True(t, ok)
	require.Equal(t, "token-1", value)

	store.Set(credentials.AccessTokenName, "token-2", time.Hour)
	value, ok = store.Get(credentials.AccessTokenName)
	require.True(t, ok)
	require.Equal(t, "token-2", value)
}

func TestFileStoreSharedBetweenInstances(t *testing.T) {
	dir := t.TempDir()
	writer := credentials.OpenStore(dir, zerolog.Nop())
	reader := credentials.OpenStore(dir, zerolog.Nop())

	writer.Set(credentials.RefreshTokenName, "shared", time.Hour)

	value, ok := reader.Get(credentials.RefreshTokenName)
	require.True(t, ok)
	require.Equal(t, "shared", value)

	writer.Clear(credentials.RefreshTokenName)
	_, ok = reader.Get(credentials.RefreshTokenName)
	require.False(t, ok)
}

func TestFileStoreExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	original := credentials.NowTimeFunc
	defer func() { credentials.NowTimeFunc = original }()
	credentials.NowTimeFunc = func() time.Time { return now }

	store := credentials.OpenStore(t.TempDir(), zerolog.Nop())
	store.Set(credentials.AccessTokenName, "short-lived", time.Hour)

	_, ok := store.Get(credentials.AccessTokenName)
	require.True(t, ok)

	credentials.NowTimeFunc = func() time.Time { return now.Add(2 * time.Hour) }
	_, ok = store.Get(credentials.AccessTokenName)
	require.False(t, ok)
}

func TestFileStorePrunesExpiredFromDisk(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	original := credentials.NowTimeFunc
	defer func() { credentials.NowTimeFunc = original }()
	credentials.NowTimeFunc = func() time.Time { return now }

	dir := t.TempDir()
	store := credentials.OpenStore(dir, zerolog.Nop())
	store.Set(credentials.AccessTokenName, "short-lived", time.Hour)
	store.Set(credentials.RefreshTokenName, "long-lived", 10*time.Hour)

	credentials.NowTimeFunc = func() time.Time { return now.Add(2 * time.Hour) }
	_, ok := store.Get(credentials.AccessTokenName)
	require.False(t, ok)

	// The expired entry is gone from the backing file, not just from reads.
	data, err := os.ReadFile(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)
	require.NotContains(t, string(data), "short-lived")
	require.Contains(t, string(data), "long-lived")
}

func TestClearIsIdempotent(t *testing.T) {
	store := credentials.OpenStore(t.TempDir(), zerolog.Nop())

	store.Clear(credentials.AccessTokenName)
	store.Clear(credentials.AccessTokenName)

	_, ok := store.Get(credentials.AccessTokenName)
	require.False(t, ok)
}

func TestNullStore(t *testing.T) {
	store := credentials.NewNullStore()

	store.Set(credentials.AccessTokenName, "ignored", time.Hour)
	_, ok := store.Get(credentials.AccessTokenName)
	require.False(t, ok)

	store.Clear(credentials.AccessTokenName) // must not panic
}

func TestOpenStoreUnavailableDirectory(t *testing.T) {
	// A plain file where the directory should be makes MkdirAll fail, so
	// the returned store must silently no-op.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store := credentials.OpenStore(filepath.Join(blocker, "nested"), zerolog.Nop())
	require.IsType(t, &credentials.NullStore{}, store)

	store.Set(credentials.AccessTokenName, "ignored", time.Hour)
	_, ok := store.Get(credentials.AccessTokenName)
	require.False(t, ok)
}

func TestOpenStoreEmptyDirectory(t *testing.T) {
	store := credentials.OpenStore("", zerolog.Nop())
	require.IsType(t, &credentials.NullStore{}, store)
}

func TestFileStoreWatch(t *testing.T) {
	dir := t.TempDir()
	store := credentials.OpenStore(dir, zerolog.Nop())
	fileStore, ok := store.(*credentials.FileStore)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := fileStore.Watch(ctx)
	require.NoError(t, err)

	other := credentials.OpenStore(dir, zerolog.Nop())
	other.Set(credentials.AccessTokenName, "from-another-process", time.Hour)

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}
}
