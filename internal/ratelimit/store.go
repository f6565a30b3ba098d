// Package ratelimit implements per-client request limiting over fixed time
// windows, with an injectable counter store so limits can be kept in process
// memory or in Redis. Counter updates are atomic: admission is a single
// check-and-increment step, and rejected calls never consume quota.
package ratelimit

import (
	"sync"
	"time"
)

// Store keeps request counters scoped to fixed time windows. Keys are
// namespaced by the caller; the store derives the current window from the
// wall clock so windows reset deterministically with no drift.
type Store interface {
	// Admit atomically increments the counter for key unless it has already
	// reached limit within the current window. Returns whether the request
	// is admitted; a rejected call leaves the counter unchanged.
	Admit(key string, limit int64, window time.Duration) (bool, error)

	// Incr unconditionally increments the counter for key and returns the
	// new count within the current window.
	Incr(key string, window time.Duration) (int64, error)

	// Count returns the counter for key within the current window.
	Count(key string, window time.Duration) (int64, error)
}

// sweepInterval bounds how often stale buckets are evicted. Eviction is
// lazy, piggybacking on whichever store call crosses the interval, so an
// idle store holds its last buckets but a live one cannot grow without
// bound as client addresses churn.
const sweepInterval = 10 * time.Minute

type bucket struct {
	windowIdx int64
	count     int64
	expires   time.Time
}

// MemoryStore is the default in-process Store, a mutex-guarded map of
// fixed-window buckets.
type MemoryStore struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: map[string]*bucket{},
		now:     time.Now,
	}
}

// windowIndex identifies the fixed window containing t.
func windowIndex(t time.Time, window time.Duration) int64 {
	return t.UnixNano() / window.Nanoseconds()
}

// current returns the bucket for key, resetting it if its window elapsed.
// Caller must hold mu.
func (s *MemoryStore) current(key string, window time.Duration) *bucket {
	now := s.now()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweep(now)
		s.lastSweep = now
	}

	idx := windowIndex(now, window)
	b, ok := s.buckets[key]
	if !ok || b.windowIdx != idx {
		b = &bucket{
			windowIdx: idx,
			expires:   time.Unix(0, (idx+1)*window.Nanoseconds()),
		}
		s.buckets[key] = b
	}
	return b
}

// sweep drops every bucket whose window has already closed. Caller must
// hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	for key, b := range s.buckets {
		if now.After(b.expires) {
			delete(s.buckets, key)
		}
	}
}

// Admit implements Store.
func (s *MemoryStore) Admit(key string, limit int64, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.current(key, window)
	if b.count >= limit {
		return false, nil
	}
	b.count++
	return true, nil
}

// Incr implements Store.
func (s *MemoryStore) Incr(key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.current(key, window)
	b.count++
	return b.count, nil
}

// Count implements Store.
func (s *MemoryStore) Count(key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current(key, window).count, nil
}

var _ Store = (*MemoryStore)(nil)
