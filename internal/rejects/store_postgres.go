package rejects

import (
	"context"
	"database/sql"
	"fmt"

	"shelfsync/internal/domain"
	txcontext "shelfsync/pkg/platform/tx"
)

// PostgresStore persists rejections with the full original row so a
// corrected resubmission needs nothing beyond this table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) runner(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes one rejection. Ids are derived from the row content, so a
// redelivered rejected row or a retried post-commit run hits the primary key
// and no-ops instead of duplicating the entry.
func (s *PostgresStore) Append(ctx context.Context, r domain.Rejection) error {
	const query = `
		INSERT INTO rejections
			(id, batch_id, reason, detail, source_ref, borrower_name, category_code,
			 label_raw, action_keyword, client_timestamp, manual_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.runner(ctx).ExecContext(ctx, query,
		r.ID,
		r.BatchID,
		r.Reason.String(),
		r.Detail,
		r.Row.Ref,
		r.Row.BorrowerName,
		r.Row.CategoryCode,
		r.Row.LabelRaw,
		r.Row.ActionKeyword,
		r.Row.ClientTimestamp,
		r.Row.ManualDate,
		r.Row.Notes,
		r.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append rejection: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]domain.Rejection, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, batch_id, reason, detail, source_ref, borrower_name, category_code,
		       label_raw, action_keyword, client_timestamp, manual_date, notes, created_at
		FROM rejections
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.runner(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list rejections: %w", err)
	}
	defer rows.Close()

	var out []domain.Rejection
	for rows.Next() {
		var r domain.Rejection
		var reason string
		if err := rows.Scan(
			&r.ID, &r.BatchID, &reason, &r.Detail,
			&r.Row.Ref, &r.Row.BorrowerName, &r.Row.CategoryCode,
			&r.Row.LabelRaw, &r.Row.ActionKeyword,
			&r.Row.ClientTimestamp, &r.Row.ManualDate, &r.Row.Notes,
			&r.At,
		); err != nil {
			return nil, fmt.Errorf("scan rejection: %w", err)
		}
		r.Reason = domain.RejectReason(reason)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rejections: %w", err)
	}
	return out, nil
}
