package memory

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Store is the default in-process revocation store: a mutex-guarded map with
// per-key absolute deadlines. Expired entries are evicted lazily on access.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value string
	// expiresAt is the zero time for entries stored without expiry.
	expiresAt time.Time
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock overrides the clock, primarily for deterministic testing.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// Write stores value at key. Overwriting replaces the previous value and its
// deadline with exactly the new call's ttl; a ttl of zero means no expiry.
func (s *Store) Write(_ context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return errors.New("key must not be empty")
	}

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()

	return nil
}

// BatchRead returns the live value for every requested key that exists.
// Absent and expired keys are omitted from the result.
func (s *Store) BatchRead(_ context.Context, keys []string) (map[string]string, error) {
	now := s.now()
	out := make(map[string]string, len(keys))
	var expired []string

	s.mu.RLock()
	for _, key := range keys {
		e, ok := s.entries[key]
		if !ok {
			continue
		}
		if !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
			expired = append(expired, key)
			continue
		}
		out[key] = e.value
	}
	s.mu.RUnlock()

	if len(expired) > 0 {
		s.evict(now, expired)
	}

	return out, nil
}

// Len reports the number of live entries, sweeping expired ones first.
func (s *Store) Len() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
			delete(s.entries, key)
		}
	}
	return len(s.entries)
}

func (s *Store) evict(now time.Time, keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		// Re-check under the write lock: a concurrent Write may have
		// refreshed the entry since the read pass.
		if e, ok := s.entries[key]; ok && !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
			delete(s.entries, key)
		}
	}
}
