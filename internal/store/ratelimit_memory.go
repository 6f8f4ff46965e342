package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/link-registry/internal/ratelimit"
)

// RateLimitMemoryStore is an in-memory sliding window implementation of ratelimit.Store.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
	calls    int
}

const (
	evictEvery = 1024
	idleGrace  = 24 * time.Hour
)

// RateLimitMemoryOption configures a RateLimitMemoryStore.
type RateLimitMemoryOption func(*RateLimitMemoryStore)

// WithRateLimitClock overrides the time source.
func WithRateLimitClock(now func() time.Time) RateLimitMemoryOption {
	return func(s *RateLimitMemoryStore) {
		s.now = now
	}
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore(opts ...RateLimitMemoryOption) *RateLimitMemoryStore {
	s := &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	kept := s.requests[key][:0]
	for _, ts := range s.requests[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	kept = append(kept, now)
	s.requests[key] = kept

	s.evictIdle(key, cutoff)

	return int64(len(kept)), nil
}

// evictIdle runs every evictEvery calls and drops keys whose newest hit is
// older than the cutoff by more than idleGrace.
func (s *RateLimitMemoryStore) evictIdle(current string, cutoff time.Time) {
	s.calls++
	if s.calls%evictEvery != 0 {
		return
	}

	for key, hits := range s.requests {
		if key == current || len(hits) == 0 {
			continue
		}

		if hits[len(hits)-1].Before(cutoff.Add(-idleGrace)) {
			delete(s.requests, key)
		}
	}
}

// Len returns the number of tracked keys.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
