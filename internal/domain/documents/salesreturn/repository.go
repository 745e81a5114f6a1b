package salesreturn

import (
	"context"

	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain"
	"uniworld/internal/domain/documents/salesorder"
	"uniworld/internal/domain/ledger"
)

// Repository defines storage operations for returns.
type Repository interface {
	Create(ctx context.Context, r *ReturnSales) error
	GetByID(ctx context.Context, returnID id.ID) (*ReturnSales, error)
	Update(ctx context.Context, r *ReturnSales) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*ReturnSales], error)

	GetItems(ctx context.Context, returnID id.ID) ([]*Item, error)
	GetItem(ctx context.Context, itemID id.ID) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error

	// SumReturnedForOrderItem totals quantities already returned
	// against a sales order line, excluding one return line when
	// excludeItemID is set (so a line does not count against itself
	// during its own update).
	SumReturnedForOrderItem(ctx context.Context, salesOrderItemID id.ID, excludeItemID *id.ID) (types.Quantity, error)
}

// OrderReader is the slice of the sales order domain the return
// settlement needs: the shipped line being returned against.
type OrderReader interface {
	GetItem(ctx context.Context, itemID id.ID) (*salesorder.Item, error)
}

// Poster posts compensating entries to the stock ledger.
type Poster interface {
	Post(ctx context.Context, req ledger.PostRequest) (*ledger.Entry, error)
}
