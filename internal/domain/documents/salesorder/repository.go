package salesorder

import (
	"context"

	"uniworld/internal/core/id"
	"uniworld/internal/domain"
	"uniworld/internal/domain/catalogs/product"
	"uniworld/internal/domain/ledger"
)

// Repository defines storage operations for sales orders.
type Repository interface {
	Create(ctx context.Context, o *SalesOrder) error
	GetByID(ctx context.Context, orderID id.ID) (*SalesOrder, error)
	Update(ctx context.Context, o *SalesOrder) error
	SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*SalesOrder], error)

	GetItems(ctx context.Context, orderID id.ID) ([]*Item, error)
	GetItem(ctx context.Context, itemID id.ID) (*Item, error)
	InsertItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, itemID id.ID) error
}

// ProductReader is the slice of the product catalog the settlement
// needs: price and discount snapshots.
type ProductReader interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// Poster posts compensating entries to the stock ledger.
type Poster interface {
	Post(ctx context.Context, req ledger.PostRequest) (*ledger.Entry, error)
}
