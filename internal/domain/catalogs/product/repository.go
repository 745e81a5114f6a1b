package product

import (
	"context"

	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain"
)

// Repository defines storage operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// Update persists master data changes with optimistic locking.
	// StockQuantity is excluded; only the ledger writes the balance.
	Update(ctx context.Context, p *Product) error

	SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
	FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)

	// GetStockForUpdate reads the cached balance under a row lock
	// (SELECT ... FOR UPDATE). Must run inside a transaction.
	GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error)

	// SetStock writes the cached balance back. Must run in the same
	// transaction that took the lock.
	SetStock(ctx context.Context, productID id.ID, qty types.Quantity) error
}
