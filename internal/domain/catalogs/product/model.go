// Package product provides the product catalog.
// A product carries master data plus a cached stock balance that only the
// ledger service may change.
package product

import (
	"context"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/entity"
	"uniworld/internal/core/types"
)

// Product represents a sellable stock item.
type Product struct {
	entity.BaseCatalog

	// SKU is the unique stock keeping unit code
	SKU string `db:"sku" json:"sku"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	Category string `db:"category" json:"category,omitempty"`
	Unit     string `db:"unit" json:"unit"`

	// Price is the current selling price per unit
	Price types.Money `db:"price" json:"price"`

	// DiscountAmount is the per-unit discount applied when the product
	// is added to a sales order line
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`

	// StockQuantity is the cached on-hand balance. It mirrors the last
	// ledger entry's current_stock and is written only by the ledger
	// service, never by catalog updates.
	StockQuantity types.Quantity `db:"stock_quantity" json:"stockQuantity"`

	// ReorderLevel is the low-stock threshold
	ReorderLevel types.Quantity `db:"reorder_level" json:"reorderLevel"`

	Barcode     *string `db:"barcode" json:"barcode,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(sku, name string, price types.Money) *Product {
	return &Product{
		BaseCatalog:    entity.NewBaseCatalog(),
		SKU:            sku,
		Name:           name,
		Price:          price,
		DiscountAmount: types.ZeroMoney(),
		Unit:           "pcs",
		IsActive:       true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}

	if p.DiscountAmount.IsNegative() {
		return apperror.NewValidation("discount cannot be negative").
			WithDetail("field", "discountAmount")
	}

	if p.DiscountAmount.GreaterThan(p.Price) {
		return apperror.NewValidation("discount cannot exceed price").
			WithDetail("field", "discountAmount")
	}

	if p.ReorderLevel.IsNegative() {
		return apperror.NewValidation("reorder level cannot be negative").
			WithDetail("field", "reorderLevel")
	}

	return nil
}

// IsLowStock reports whether the cached balance is at or below the
// reorder level.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.ReorderLevel
}
