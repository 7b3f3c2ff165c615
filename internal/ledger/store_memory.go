package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"shelfsync/internal/domain"
)

// MemoryStore keeps the committed log and checkpoint in memory for tests and
// development. Append mirrors the Postgres semantics: an existing dedup key
// makes the append a silent no-op.
type MemoryStore struct {
	mu     sync.RWMutex
	byKey  map[domain.DedupKey]domain.ResolvedEvent
	events []domain.ResolvedEvent
	cp     domain.Checkpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: make(map[domain.DedupKey]domain.ResolvedEvent)}
}

func (s *MemoryStore) Append(ctx context.Context, event domain.ResolvedEvent, committedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := event.Key()
	if _, ok := s.byKey[key]; ok {
		return nil
	}
	s.byKey[key] = event
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) CommittedKeys(ctx context.Context, keys []domain.DedupKey) (map[domain.DedupKey]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.DedupKey]bool, len(keys))
	for _, k := range keys {
		if _, ok := s.byKey[k]; ok {
			out[k] = true
		}
	}
	return out, nil
}

func (s *MemoryStore) ListByItem(ctx context.Context, id domain.ItemID) ([]domain.ResolvedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ResolvedEvent
	for _, ev := range s.events {
		if ev.ItemID == id {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveTime.Before(out[j].EffectiveTime)
	})
	return out, nil
}

// Len reports the number of committed events; test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *MemoryStore) Load(ctx context.Context) (domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cp, nil
}

func (s *MemoryStore) Save(ctx context.Context, cp domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cp = cp
	return nil
}
