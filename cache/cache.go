// Package cache implements a time-bounded key/value store.
//
// Expiry is checked lazily on access: an expired entry is deleted by the
// read that discovers it. There is no background sweeper goroutine, so the
// store is safe to embed in short-lived processes without leaking timers.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Stats describes the cache contents at a point in time. Valid and Expired
// are computed against the clock at call time without evicting anything.
type Stats struct {
	Total   int      `json:"total_entries"`
	Valid   int      `json:"valid_entries"`
	Expired int      `json:"expired_entries"`
	Keys    []string `json:"cache_keys"`
}

// Store is a mutex-guarded TTL cache. Writes to the same key race under
// last-write-wins semantics; entries are immutable once set.
type Store struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration

	// now is the clock; tests substitute a fixed or advancing func.
	now func() time.Time
}

// New creates a Store whose Set calls fall back to defaultTTL when no
// explicit TTL is given.
func New(defaultTTL time.Duration) *Store {
	return &Store{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// SetClock replaces the store's clock. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the value stored under key, if present and unexpired. An
// entry whose expiry has passed is deleted and reported as absent.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the given TTL, overwriting any existing
// entry. A zero or negative ttl uses the store default.
func (s *Store) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
}

// Clear removes entries whose key contains pattern as a substring and
// returns how many were removed. An empty pattern removes everything.
func (s *Store) Clear(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pattern == "" {
		count := len(s.entries)
		s.entries = make(map[string]entry)
		return count
	}

	count := 0
	for key := range s.entries {
		if strings.Contains(key, pattern) {
			delete(s.entries, key)
			count++
		}
	}
	return count
}

// Stats reports the current contents. Expired entries are counted, not
// evicted; only Get mutates the store.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st := Stats{Keys: make([]string, 0, len(s.entries))}
	for key, e := range s.entries {
		st.Total++
		if now.Before(e.expiresAt) {
			st.Valid++
		} else {
			st.Expired++
		}
		st.Keys = append(st.Keys, key)
	}
	return st
}
