package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type contextKey string

const txKey contextKey = "db_tx"

// ConnFromContext returns the transaction bound to ctx by WithTx, or nil.
// Repositories prefer it over their pool so that multi-statement operations
// share one transaction.
func ConnFromContext(ctx context.Context) Querier {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	if tx == nil {
		return nil
	}
	return tx
}

// WithTx runs fn inside a transaction. Nested calls join the outer
// transaction. The transaction commits when fn returns nil and rolls back
// otherwise.
func WithTx(ctx context.Context, database DB, fn func(ctx context.Context) error) (err error) {
	if ConnFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := database.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
