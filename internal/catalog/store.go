package catalog

import (
	"context"

	"shelfsync/internal/domain"
)

// Stores are interface-driven so the reconciler can run against in-memory
// fixtures in tests and Postgres in production without rewiring the
// pipeline. The reconciler consumes the catalog, it does not own it: item
// and borrower rows are never created or deleted here, and the only write
// surface is the item status column inside the writer's transaction.

// ItemStore is the read side of the catalog plus the single status write the
// idempotent writer is allowed.
type ItemStore interface {
	// Item returns the catalog item or sentinel.ErrNotFound.
	Item(ctx context.Context, id domain.ItemID) (domain.Item, error)
	// UpdateStatus persists a lifecycle change. Joins the transaction on the
	// context when one is present.
	UpdateStatus(ctx context.Context, id domain.ItemID, status domain.ItemStatus) error
}

// BorrowerStore exposes the canonical roster the matcher scores against.
type BorrowerStore interface {
	List(ctx context.Context) ([]domain.Borrower, error)
}

// CategoryStore maps each category code to its zero-pad label width.
type CategoryStore interface {
	LabelWidths(ctx context.Context) (map[string]int, error)
}
