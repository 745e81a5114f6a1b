package ledger

import (
	"context"
	"time"

	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain"
)

// HistoryFilter narrows ledger history queries.
type HistoryFilter struct {
	ProductID id.ID
	Kinds     []Kind
	From      *time.Time
	To        *time.Time
	Reference string
	Limit     int
	Offset    int
}

// Repository defines storage operations for ledger entries.
// Entries are insert-only; there is no update or delete.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, entryID id.ID) (*Entry, error)

	// LastEntry returns the most recent entry for a product, or nil
	// when the product has no history yet.
	LastEntry(ctx context.Context, productID id.ID) (*Entry, error)

	History(ctx context.Context, filter HistoryFilter) (domain.ListResult[*Entry], error)
}

// ProductStore is the slice of the product catalog the ledger needs:
// locked balance reads and balance write-back.
type ProductStore interface {
	GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error)
	SetStock(ctx context.Context, productID id.ID, qty types.Quantity) error
}
