// Package ratelimit provides request rate limiting for the HTTP API. The
// Redis-backed store is shared across instances; the in-memory store serves
// single-node deployments and tests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store counts requests per key within a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// MemoryStore is a sliding window limiter held in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*window
}

type window struct {
	timestamps []time.Time
	span       time.Duration
}

func (w *window) cleanup(now time.Time) {
	cutoff := now.Add(-w.span)
	kept := w.timestamps[:0]
	for _, t := range w.timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.timestamps = kept
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*window)}
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, span time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.buckets[key]
	if !ok {
		w = &window{span: span}
		s.buckets[key] = w
	}

	now := time.Now()
	w.cleanup(now)

	if len(w.timestamps) >= limit {
		return &Result{
			Allowed: false,
			Limit:   limit,
			ResetAt: w.timestamps[0].Add(span),
		}, nil
	}

	w.timestamps = append(w.timestamps, now)
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(w.timestamps),
		ResetAt:   w.timestamps[0].Add(span),
	}, nil
}

// Reset clears the counter for a key.
func (s *MemoryStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
}
