// Package session implements the client-side coordination core of the
// booking flow: a locally persisted cart (CartStore), a listener that
// reconciles the cart against authoritative catalog state on push
// events (SyncListener), and a coordinator for the single table hold a
// customer may have at a time (HoldCoordinator).  The package talks to
// the outside world only through small interfaces so every part can be
// exercised with fakes.
package session

import (
	"bytes"
	"encoding/json"
	"sync"
)

// Storage is the durable key/value primitive drafts are persisted to.
// Implementations must make Set visible to a later Get even across
// process restarts (the client binary uses a Badger store; tests use
// MemoryStorage).
type Storage interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)
	// Set stores the value, replacing any previous one.
	Set(key string, value []byte) error
	// Delete removes the key.  Deleting a missing key is not an error.
	Delete(key string) error
}

// MemoryStorage is an in-process Storage used by tests and as a
// fallback when no durable store is configured.
type MemoryStorage struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{m: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (s *MemoryStorage) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.m[key] = cp
	return nil
}

func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// decodeObject unmarshals raw into dst only when raw is a well-formed
// JSON object.  Arrays, primitives and malformed JSON are rejected with
// ok=false so load paths can silently discard corrupted entries and
// start empty instead of failing.
func decodeObject(raw []byte, dst any) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Unmarshal(trimmed, dst) == nil
}
