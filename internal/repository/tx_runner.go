package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewTxRunner runs a request review with repositories bound to one transaction.
type ReviewTxRunner interface {
	RunReview(ctx context.Context, fn func(requests RequestRepository, entries TimeEntryRepository) error) error
}

// TxRunner executes callbacks inside a PostgreSQL transaction.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner builds the runner on top of the pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunReview begins a transaction, runs fn, and commits only when fn succeeds.
func (r *TxRunner) RunReview(ctx context.Context, fn func(requests RequestRepository, entries TimeEntryRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRequestRepository(tx), NewTimeEntryRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
