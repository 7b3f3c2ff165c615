// Package writer commits a batch's surviving events, status deltas and
// checkpoint advance as one atomic unit. Re-running a fully-committed batch
// performs zero additional writes: the ledger's dedup-key uniqueness absorbs
// redelivery even if the in-pipeline deduplicator missed one.
package writer

import (
	"context"
	"time"

	"shelfsync/internal/domain"
)

// Batch is everything one reconciliation run wants persisted together.
type Batch struct {
	Events     []domain.ResolvedEvent
	Statuses   map[domain.ItemID]domain.ItemStatus
	Checkpoint domain.Checkpoint
	// CommittedAt stamps every ledger row in the batch identically so a
	// batch reads as one unit in the log.
	CommittedAt time.Time
}

// Writer persists a batch atomically: either every event, status delta and
// the checkpoint land, or none do.
type Writer interface {
	Commit(ctx context.Context, batch Batch) error
}
