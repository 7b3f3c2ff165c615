package catalog

import (
	"context"
	"fmt"
	"sync"

	"shelfsync/internal/domain"
	"shelfsync/pkg/platform/sentinel"
)

// MemoryStore is an in-memory catalog for tests and development. It
// implements ItemStore, BorrowerStore and CategoryStore.
type MemoryStore struct {
	mu        sync.RWMutex
	items     map[domain.ItemID]domain.Item
	borrowers []domain.Borrower
	widths    map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[domain.ItemID]domain.Item),
		widths: make(map[string]int),
	}
}

// SeedCategory registers a category code with its label width.
func (s *MemoryStore) SeedCategory(code string, width int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widths[code] = width
}

// SeedItem adds a catalog item.
func (s *MemoryStore) SeedItem(item domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// SeedBorrower adds a roster entry.
func (s *MemoryStore) SeedBorrower(b domain.Borrower) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.borrowers = append(s.borrowers, b)
}

func (s *MemoryStore) Item(ctx context.Context, id domain.ItemID) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return domain.Item{}, fmt.Errorf("item %s: %w", id, sentinel.ErrNotFound)
	}
	return item, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id domain.ItemID, status domain.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, sentinel.ErrNotFound)
	}
	item.Status = status
	s.items[id] = item
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.Borrower, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Borrower, len(s.borrowers))
	copy(out, s.borrowers)
	return out, nil
}

func (s *MemoryStore) LabelWidths(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.widths))
	for k, v := range s.widths {
		out[k] = v
	}
	return out, nil
}
