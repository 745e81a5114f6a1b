// Package tx provides transaction management abstractions.
// This package defines interfaces that decouple domain logic from specific
// database implementations, following the Dependency Inversion Principle.
package tx

import (
	"context"

	"uniworld/internal/core/apperror"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction support.
//
// Domain services depend on this interface, not concrete implementations.
// The actual implementation lives in infrastructure/storage/postgres.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// InTransaction reports whether ctx already carries an active transaction.
	InTransaction(ctx context.Context) bool
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Use for queries that don't modify data (better performance, no locks).
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	// Attempts to modify data will fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// WithRetry runs fn in a transaction, retrying on concurrency conflicts
// (serialization failures, deadlocks) up to attempts times.
//
// When ctx already carries a transaction the call simply delegates:
// retrying inside someone else's transaction would replay only part of
// the work, so the conflict is left for the outermost caller to handle.
func WithRetry(ctx context.Context, m Manager, attempts int, fn func(ctx context.Context) error) error {
	if m.InTransaction(ctx) {
		return m.RunInTransaction(ctx, fn)
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = m.RunInTransaction(ctx, fn)
		if err == nil || !apperror.IsConcurrencyConflict(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
