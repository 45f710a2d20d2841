package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// DismissalStore remembers dismissed alert ids in memory.
type DismissalStore struct {
	mu        sync.RWMutex
	dismissed map[uuid.UUID]bool
}

func NewDismissalStore() *DismissalStore {
	return &DismissalStore{dismissed: make(map[uuid.UUID]bool)}
}

func (s *DismissalStore) Dismiss(_ context.Context, alertID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed[alertID] = true
	return nil
}

func (s *DismissalStore) IsDismissed(_ context.Context, alertID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dismissed[alertID], nil
}

func (s *DismissalStore) Dismissed(_ context.Context) (map[uuid.UUID]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]bool, len(s.dismissed))
	for id := range s.dismissed {
		out[id] = true
	}
	return out, nil
}
