package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"libris/internal/member/models"
	"libris/pkg/platform/sentinel"
)

// InMemory keeps members in process memory, indexed by id and username.
type InMemory struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]models.Member
	byUsername map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:       make(map[uuid.UUID]models.Member),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (s *InMemory) Create(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[member.Username]; ok {
		return sentinel.ErrConflict
	}
	s.byID[member.ID] = *member
	s.byUsername[member.Username] = member.ID
	return nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	member := s.byID[id]
	return &member, nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &member, nil
}
