package cart

import (
	"context"
	"sync"

	"github.com/avelis/shopfront/internal/domain"
)

// MemoryStore implements Store with in-memory storage. It backs sessions when
// no durable store is configured, and test setups.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]domain.LineItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]domain.LineItem)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]domain.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, exists := s.carts[sessionID]
	if !exists {
		return nil, ErrNoCart
	}
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, items []domain.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.LineItem, len(items))
	copy(stored, items)
	s.carts[sessionID] = stored
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}
