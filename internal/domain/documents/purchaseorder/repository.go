package purchaseorder

import (
	"context"

	"uniworld/internal/core/id"
	"uniworld/internal/domain"
	"uniworld/internal/domain/ledger"
)

// Repository defines storage operations for purchase orders.
type Repository interface {
	Create(ctx context.Context, o *PurchaseOrder) error
	GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)
	Update(ctx context.Context, o *PurchaseOrder) error
	SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*PurchaseOrder], error)

	GetItems(ctx context.Context, orderID id.ID) ([]*Item, error)
	GetItem(ctx context.Context, itemID id.ID) (*Item, error)
	InsertItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, itemID id.ID) error
}

// Poster posts IN entries to the stock ledger on receipt.
type Poster interface {
	Post(ctx context.Context, req ledger.PostRequest) (*ledger.Entry, error)
}
