package ledger

import (
	"context"
	"time"

	"shelfsync/internal/domain"
)

// Store is the append-only committed event log. Append is keyed by the
// dedup key: a second append with the same key must be a no-op at the
// storage level (unique index + ON CONFLICT DO NOTHING in Postgres), which
// is the idempotence backstop behind the in-pipeline deduplicator.
type Store interface {
	Append(ctx context.Context, event domain.ResolvedEvent, committedAt time.Time) error
	// CommittedKeys reports which of the given dedup keys already exist.
	CommittedKeys(ctx context.Context, keys []domain.DedupKey) (map[domain.DedupKey]bool, error)
	// ListByItem returns the committed sequence for one item ordered by
	// effective time, oldest first.
	ListByItem(ctx context.Context, id domain.ItemID) ([]domain.ResolvedEvent, error)
}

// CheckpointStore persists the batch high-water mark. Load returns the zero
// checkpoint when none has been saved yet.
type CheckpointStore interface {
	Load(ctx context.Context) (domain.Checkpoint, error)
	Save(ctx context.Context, cp domain.Checkpoint) error
}
