package invoice

import (
	"context"

	"uniworld/internal/core/id"
	"uniworld/internal/domain"
	"uniworld/internal/domain/documents/salesorder"
)

// Repository defines storage operations for invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	SetDeletionMark(ctx context.Context, invoiceID id.ID, mark bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error)

	// GetBySalesOrderID returns the live invoice for an order, or
	// nil when none exists. Enforces the one-invoice-per-order rule.
	GetBySalesOrderID(ctx context.Context, salesOrderID id.ID) (*Invoice, error)

	GetItems(ctx context.Context, invoiceID id.ID) ([]*Item, error)
}

// OrderReader is the slice of the sales order domain invoicing needs:
// the billed order and its lines.
type OrderReader interface {
	GetByID(ctx context.Context, orderID id.ID) (*salesorder.SalesOrder, error)
	GetItems(ctx context.Context, orderID id.ID) ([]*salesorder.Item, error)
}
