package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shelfsync/internal/domain"
	"shelfsync/pkg/platform/sentinel"
	txcontext "shelfsync/pkg/platform/tx"
)

// PostgresStore reads the catalog tables owned by the CRUD layer. Pure I/O;
// all domain rules live in the reconcile packages.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) runner(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Item(ctx context.Context, id domain.ItemID) (domain.Item, error) {
	const query = `
		SELECT id, name, status
		FROM items
		WHERE id = $1
	`
	var item domain.Item
	err := s.runner(ctx).QueryRowContext(ctx, query, id.String()).Scan(&item.ID, &item.Name, &item.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Item{}, fmt.Errorf("item %s: %w", id, sentinel.ErrNotFound)
		}
		return domain.Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id domain.ItemID, status domain.ItemStatus) error {
	const query = `
		UPDATE items
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.runner(ctx).ExecContext(ctx, query, id.String(), status.String())
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("item %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]domain.Borrower, error) {
	const query = `
		SELECT id, name, COALESCE(classroom, '')
		FROM borrowers
		ORDER BY id
	`
	rows, err := s.runner(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list borrowers: %w", err)
	}
	defer rows.Close()

	var out []domain.Borrower
	for rows.Next() {
		var b domain.Borrower
		if err := rows.Scan(&b.ID, &b.Name, &b.Classroom); err != nil {
			return nil, fmt.Errorf("scan borrower: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list borrowers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) LabelWidths(ctx context.Context) (map[string]int, error) {
	const query = `
		SELECT code, label_width
		FROM categories
	`
	rows, err := s.runner(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	widths := make(map[string]int)
	for rows.Next() {
		var code string
		var width int
		if err := rows.Scan(&code, &width); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		widths[code] = width
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return widths, nil
}
