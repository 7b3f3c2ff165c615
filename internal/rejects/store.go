package rejects

import (
	"context"

	"shelfsync/internal/domain"
)

// Store is the operator-visible rejection log. Beyond the committed catalog
// state this is the only user-facing output the reconciler produces:
// operators correct rejected rows and resubmit them through the normal input
// path, the reconciler never retries on its own.
type Store interface {
	Append(ctx context.Context, rejection domain.Rejection) error
	// List returns the most recent rejections, newest first.
	List(ctx context.Context, limit int) ([]domain.Rejection, error)
}
