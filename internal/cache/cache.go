package cache

import (
	"sync"
	"time"

	"github.com/maypok86/otter"
)

// Store is a transient key/value cache where every entry carries its own TTL.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
}

// OtterStore keeps transients in an otter cache with variable TTL.
type OtterStore struct {
	cache otter.CacheWithVariableTTL[string, string]
}

func NewOtterStore(capacity int) (*OtterStore, error) {
	c, err := otter.MustBuilder[string, string](capacity).
		WithVariableTTL().
		Build()
	if err != nil {
		return nil, err
	}
	return &OtterStore{cache: c}, nil
}

func (s *OtterStore) Get(key string) (string, bool) {
	return s.cache.Get(key)
}

func (s *OtterStore) Set(key, value string, ttl time.Duration) {
	s.cache.Set(key, value, ttl)
}

func (s *OtterStore) Close() {
	s.cache.Close()
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a map-backed Store with an injectable clock.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	Now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), Now: time.Now}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if !s.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) Set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.Now().Add(ttl)}
}
