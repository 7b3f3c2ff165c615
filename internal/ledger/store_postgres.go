package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"shelfsync/internal/domain"
	txcontext "shelfsync/pkg/platform/tx"
)

// PostgresStore persists the committed event log and checkpoint. Pure I/O;
// ordering and alternation rules live in the reconcile packages.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type runner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) runner(ctx context.Context) runner {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes one committed event. The unique index on dedup_key makes a
// redelivered event a no-op rather than an error.
func (s *PostgresStore) Append(ctx context.Context, event domain.ResolvedEvent, committedAt time.Time) error {
	const query = `
		INSERT INTO ledger_events
			(dedup_key, item_id, borrower_id, action, effective_time, source_ref, notes, committed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (dedup_key) DO NOTHING
	`
	_, err := s.runner(ctx).ExecContext(ctx, query,
		event.Key().String(),
		event.ItemID.String(),
		int64(event.BorrowerID),
		event.Action.String(),
		event.EffectiveTime.UTC(),
		event.SourceRef,
		event.Notes,
		committedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append ledger event: %w", err)
	}
	return nil
}

func (s *PostgresStore) CommittedKeys(ctx context.Context, keys []domain.DedupKey) (map[domain.DedupKey]bool, error) {
	out := make(map[domain.DedupKey]bool, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	raw := make([]string, 0, len(keys))
	byString := make(map[string]domain.DedupKey, len(keys))
	for _, k := range keys {
		str := k.String()
		raw = append(raw, str)
		byString[str] = k
	}

	const query = `
		SELECT dedup_key
		FROM ledger_events
		WHERE dedup_key = ANY($1)
	`
	rows, err := s.runner(ctx).QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("probe committed keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var str string
		if err := rows.Scan(&str); err != nil {
			return nil, fmt.Errorf("scan committed key: %w", err)
		}
		if k, ok := byString[str]; ok {
			out[k] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("probe committed keys: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListByItem(ctx context.Context, id domain.ItemID) ([]domain.ResolvedEvent, error) {
	const query = `
		SELECT item_id, borrower_id, action, effective_time, source_ref, COALESCE(notes, '')
		FROM ledger_events
		WHERE item_id = $1
		ORDER BY effective_time, id
	`
	rows, err := s.runner(ctx).QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("list ledger events: %w", err)
	}
	defer rows.Close()

	var out []domain.ResolvedEvent
	for rows.Next() {
		var ev domain.ResolvedEvent
		var borrowerID int64
		if err := rows.Scan(&ev.ItemID, &borrowerID, &ev.Action, &ev.EffectiveTime, &ev.SourceRef, &ev.Notes); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		ev.BorrowerID = domain.BorrowerID(borrowerID)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ledger events: %w", err)
	}
	return out, nil
}

// Load returns the singleton checkpoint row, or the zero checkpoint when the
// reconciler has never committed.
func (s *PostgresStore) Load(ctx context.Context) (domain.Checkpoint, error) {
	const query = `
		SELECT high_water, offset_count, updated_at
		FROM sync_checkpoint
		WHERE singleton
	`
	var cp domain.Checkpoint
	err := s.runner(ctx).QueryRowContext(ctx, query).Scan(&cp.HighWater, &cp.Offset, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Checkpoint{}, nil
		}
		return domain.Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}
	return cp, nil
}

// Save upserts the singleton checkpoint row. Called only inside the writer's
// transaction so the advance is atomic with the batch it describes.
func (s *PostgresStore) Save(ctx context.Context, cp domain.Checkpoint) error {
	const query = `
		INSERT INTO sync_checkpoint (singleton, high_water, offset_count, updated_at)
		VALUES (TRUE, $1, $2, $3)
		ON CONFLICT (singleton) DO UPDATE SET
			high_water = EXCLUDED.high_water,
			offset_count = EXCLUDED.offset_count,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.runner(ctx).ExecContext(ctx, query, cp.HighWater.UTC(), cp.Offset, cp.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
