// Package source supplies raw rows to the reconciler. The upstream is a
// spreadsheet-style form with at-least-once delivery; the reconciler only
// requires that every row carries a stable reference back to its origin.
package source

import (
	"context"

	"shelfsync/internal/domain"
)

// RowSource reads one batch worth of raw rows. Implementations must not
// mutate rows after returning them.
type RowSource interface {
	Rows(ctx context.Context) ([]domain.RawRow, error)
}
