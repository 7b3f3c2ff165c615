package writer

import (
	"context"
	"fmt"
	"sync"

	"shelfsync/internal/catalog"
	"shelfsync/internal/ledger"
)

// Memory commits batches against the in-memory stores. A mutex stands in for
// the SQL transaction: memory store writes cannot fail halfway, so holding
// the lock across the whole batch preserves the all-or-nothing contract.
type Memory struct {
	mu          sync.Mutex
	events      *ledger.MemoryStore
	items       *catalog.MemoryStore
	checkpoints ledger.CheckpointStore

	// failBefore, when set, aborts the commit before any write; tests use it
	// to simulate a mid-commit infrastructure failure.
	failBefore error
}

func NewMemory(events *ledger.MemoryStore, items *catalog.MemoryStore) *Memory {
	return &Memory{events: events, items: items, checkpoints: events}
}

// FailNextCommit arms a one-shot commit failure.
func (w *Memory) FailNextCommit(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failBefore = err
}

func (w *Memory) Commit(ctx context.Context, batch Batch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.failBefore != nil {
		err := w.failBefore
		w.failBefore = nil
		return fmt.Errorf("commit batch: %w", err)
	}

	for _, ev := range batch.Events {
		if err := w.events.Append(ctx, ev, batch.CommittedAt); err != nil {
			return fmt.Errorf("commit event %s: %w", ev.SourceRef, err)
		}
	}
	for id, status := range batch.Statuses {
		if err := w.items.UpdateStatus(ctx, id, status); err != nil {
			return fmt.Errorf("commit status %s: %w", id, err)
		}
	}
	if err := w.checkpoints.Save(ctx, batch.Checkpoint); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}
