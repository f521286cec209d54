package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit events in process memory. Suitable for tests and
// single-node deployments; swap for a persistent store before relying on the
// trail operationally.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByCopy(_ context.Context, copyID int64) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.CopyID == copyID {
			out = append(out, e)
		}
	}
	return out, nil
}
