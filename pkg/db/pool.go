package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPingFailed = errors.New("db: ping failed")
	ErrTx         = errors.New("db: transaction failed")
)

// Check reports whether the pool can reach the database.
func Check(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil {
			return fmt.Errorf("%w: pool not configured", ErrPingFailed)
		}
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrPingFailed, err)
		}
		return nil
	}
}

// CloseHook adapts pool to the cleanup chain run on exit. Close blocks until
// borrowed connections are returned.
func CloseHook(pool *pgxpool.Pool) func(context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}

// WithTx runs fn inside a transaction. A nil return commits; an error or a
// panic rolls back, and the panic keeps propagating.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrTx, err)
	}

	committed := false
	defer func() {
		if !committed {
			// Rollback after a failed fn is best effort; fn's error wins.
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrTx, err)
	}
	committed = true
	return nil
}
