package rejects

import (
	"context"
	"sync"

	"shelfsync/internal/domain"
)

// MemoryStore keeps rejections in memory for tests and development. Append
// mirrors the Postgres semantics: an existing id makes the append a silent
// no-op.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]bool
	rejections []domain.Rejection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]bool)}
}

func (s *MemoryStore) Append(ctx context.Context, rejection domain.Rejection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byID[rejection.ID] {
		return nil
	}
	s.byID[rejection.ID] = true
	s.rejections = append(s.rejections, rejection)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]domain.Rejection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.rejections)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.Rejection, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.rejections[i])
	}
	return out, nil
}
