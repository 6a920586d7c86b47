package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const storeFileName = "credentials.json"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type entry struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expiresAt"` // Unix seconds; zero means no expiry
}

// FileStore persists credentials as a JSON file under a profile directory.
// The file is re-read on every access so writes from other processes using
// the same profile are always visible.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
}

// OpenStore opens the credential store backed by dir. When the directory
// cannot be created the returned store is a NullStore: every operation
// no-ops and credentials read as absent, per the storage-unavailable
// contract.
func OpenStore(dir string, log zerolog.Logger) Store {
	if dir == "" {
		log.Warn().Msg("credential store: no profile directory, credentials will not persist")
		return NewNullStore()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("credential store: directory unavailable, credentials will not persist")
		return NewNullStore()
	}
	return &FileStore{
		path: filepath.Join(dir, storeFileName),
		log:  log,
	}
}

// Path returns the location of the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	e, ok := entries[name]
	if !ok {
		return "", false
	}
	if e.ExpiresAt != 0 && NowTimeFunc().Unix() >= e.ExpiresAt {
		return "", false
	}
	return e.Value, true
}

func (s *FileStore) Set(name, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	e := entry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = NowTimeFunc().Add(ttl).Unix()
	}
	entries[name] = e
	s.save(entries)
}

func (s *FileStore) Clear(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	if _, ok := entries[name]; !ok {
		return
	}
	delete(entries, name)
	s.save(entries)
}

// load reads the backing file, dropping entries that have expired. The
// prune is written back so expired credentials do not linger on disk. A
// missing or unreadable file reads as an empty store.
func (s *FileStore) load() map[string]entry {
	entries := make(map[string]entry)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Msg("credential store: read failed")
		}
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Warn().Err(err).Msg("credential store: corrupt file, treating as empty")
		return make(map[string]entry)
	}
	now := NowTimeFunc().Unix()
	pruned := false
	for name, e := range entries {
		if e.ExpiresAt != 0 && now >= e.ExpiresAt {
			delete(entries, name)
			pruned = true
		}
	}
	if pruned {
		s.save(entries)
	}
	return entries
}

func (s *FileStore) save(entries map[string]entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		s.log.Error().Err(err).Msg("credential store: marshal failed")
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Error().Err(err).Msg("credential store: write failed")
	}
}
