package reports

import (
	"context"
	"time"

	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/ledger"
)

// Repository defines the reconstruction queries. All entry lookups
// return nil (not an error) when no entry matches.
type Repository interface {
	// LastEntryBefore returns the latest entry with occurred_at
	// strictly before cutoff. When floor is non-nil, entries before
	// it are ignored.
	LastEntryBefore(ctx context.Context, productID id.ID, cutoff time.Time, floor *time.Time) (*ledger.Entry, error)

	// LastEntryUntil returns the latest entry with occurred_at <= end.
	// When floor is non-nil, entries before it are ignored.
	LastEntryUntil(ctx context.Context, productID id.ID, end time.Time, floor *time.Time) (*ledger.Entry, error)

	// FirstEntrySince returns the earliest entry with occurred_at >= from.
	FirstEntrySince(ctx context.Context, productID id.ID, from time.Time) (*ledger.Entry, error)

	// SumKinds totals entry quantities of the given kinds with
	// occurred_at in [from, to].
	SumKinds(ctx context.Context, productID id.ID, kinds []ledger.Kind, from, to time.Time) (types.Quantity, error)

	// CachedStock reads the product's cached balance.
	CachedStock(ctx context.Context, productID id.ID) (types.Quantity, error)

	// ActiveProductIDs lists products for the summary report.
	ActiveProductIDs(ctx context.Context) ([]id.ID, error)
}
