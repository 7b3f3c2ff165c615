package tx

import (
	"context"
	"database/sql"
	"fmt"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Run executes fn inside a transaction placed on the context, so every store
// call made by fn joins the same atomic unit. Rollback on error or panic;
// commit otherwise.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) (err error) {
	dbTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = dbTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = dbTx.Rollback()
			return
		}
		err = dbTx.Commit()
	}()
	return fn(WithTx(ctx, dbTx))
}
