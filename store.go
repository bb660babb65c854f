package sdk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// sessionTokenKey is the single slot holding the raw session token.
const sessionTokenKey = "session_token"

// TokenStore is the persistence boundary for the session token plus small
// auxiliary client-side values (refresh markers, cached results). It performs
// no validation and must be safe to use before any other SDK component is
// constructed. Failures degrade to "no value", never to an error.
type TokenStore interface {
	// Get returns the stored session token, or "" when absent.
	Get() string
	// Set stores the token as a full replacement; Set("") removes the entry.
	Set(token string)

	GetItem(key string) string
	SetItem(key, value string)
	RemoveItem(key string)

	// RemoveByPrefix deletes every key under the prefix. Best effort.
	RemoveByPrefix(prefix string)
}

// MemoryStore is an in-process TokenStore. It is the default for tests and
// for callers that manage durability themselves.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get() string      { return s.GetItem(sessionTokenKey) }
func (s *MemoryStore) Set(token string) { s.SetItem(sessionTokenKey, token) }

func (s *MemoryStore) GetItem(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

func (s *MemoryStore) SetItem(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.data, key)
		return
	}
	s.data[key] = value
}

func (s *MemoryStore) RemoveItem(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *MemoryStore) RemoveByPrefix(prefix string) {
	if prefix == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
		}
	}
}

// FileStore persists its entries as a JSON object in a single file, the Go
// analog of the dashboard's origin-scoped durable storage: it survives
// process restarts but is local to the machine and user.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger

	loaded bool
	data   map[string]string
}

// NewFileStore returns a store backed by the given file. The file and its
// directory are created lazily on first write.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{path: path, log: logger}
}

// DefaultStorePath returns the conventional session file location under the
// user config dir.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "getindexednow", "session.json"), nil
}

func (s *FileStore) Get() string      { return s.GetItem(sessionTokenKey) }
func (s *FileStore) Set(token string) { s.SetItem(sessionTokenKey, token) }

func (s *FileStore) GetItem(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.data[key]
}

func (s *FileStore) SetItem(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	if value == "" {
		delete(s.data, key)
	} else {
		s.data[key] = value
	}
	s.persist()
}

func (s *FileStore) RemoveItem(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	if _, ok := s.data[key]; !ok {
		return
	}
	delete(s.data, key)
	s.persist()
}

func (s *FileStore) RemoveByPrefix(prefix string) {
	if prefix == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	removed := false
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			removed = true
		}
	}
	if removed {
		s.persist()
	}
}

// load populates the cache from disk once. A missing or corrupt file degrades
// to an empty store.
func (s *FileStore) load() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.data = make(map[string]string)
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("session store unreadable")
		}
		return
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session store corrupt, starting empty")
		s.data = make(map[string]string)
	}
}

func (s *FileStore) persist() {
	encoded, err := json.Marshal(s.data)
	if err != nil {
		s.log.Warn().Err(err).Msg("session store encode failed")
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session store dir create failed")
		return
	}
	if err := os.WriteFile(s.path, encoded, 0o600); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session store write failed")
	}
}
