package writer

import (
	"context"
	"database/sql"
	"fmt"

	"shelfsync/internal/catalog"
	"shelfsync/internal/ledger"
	txcontext "shelfsync/pkg/platform/tx"
)

// Postgres commits batches inside one SQL transaction. The stores it drives
// all pick the transaction off the context, so no store call can escape the
// atomic unit.
type Postgres struct {
	db          *sql.DB
	events      ledger.Store
	checkpoints ledger.CheckpointStore
	items       catalog.ItemStore
}

func NewPostgres(db *sql.DB, events ledger.Store, checkpoints ledger.CheckpointStore, items catalog.ItemStore) *Postgres {
	return &Postgres{db: db, events: events, checkpoints: checkpoints, items: items}
}

func (w *Postgres) Commit(ctx context.Context, batch Batch) error {
	return txcontext.Run(ctx, w.db, func(ctx context.Context) error {
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
	})
}
