// Package cache is the process-local read-through cache in front of the
// source base. It is a plain mutex-guarded map: each server instance keeps
// its own copy, so horizontally scaled deployments accept a per-instance
// staleness window unless the backing store is swapped for a shared one.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	data     any
	storedAt time.Time
	ttl      time.Duration
}

// Store is a TTL-keyed key/value map with lazy expiry: an entry past its TTL
// is deleted on the next Get, not by a background sweep. Keys that are set
// once and never read again are not reclaimed.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entry), now: time.Now}
}

// Get returns the value for key, or reports a miss. An expired entry is
// evicted and treated as a miss.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.storedAt) > e.ttl {
		delete(s.entries, key)
		return nil, false
	}
	return e.data, true
}

func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{data: value, storedAt: s.now(), ttl: ttl}
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
}

// Len reports live and expired entries alike; expiry is lazy.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
