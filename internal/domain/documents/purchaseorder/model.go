// Package purchaseorder provides the PurchaseOrder document. Stock
// enters the ledger only when the order is received; pending line edits
// touch totals alone.
package purchaseorder

import (
	"context"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/entity"
	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
)

// Status tracks the order lifecycle.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusReceived Status = "Received"
)

// PurchaseOrder represents an order placed with a supplier.
type PurchaseOrder struct {
	entity.Document

	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	Status Status `db:"status" json:"status"`

	// TotalAmount is derived: sum of line totals
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// Table part: ordered items
	Items []*Item `db:"-" json:"items"`
}

// Item is one purchase order line.
type Item struct {
	entity.BaseEntity

	OrderID   id.ID `db:"order_id" json:"orderId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`

	// Total = quantity x unit price
	Total types.Money `db:"total" json:"total"`
}

// NewPurchaseOrder creates a new pending purchase order.
func NewPurchaseOrder(supplierID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		Document:    entity.NewDocument(),
		SupplierID:  supplierID,
		Status:      StatusPending,
		TotalAmount: types.ZeroMoney(),
		Items:       make([]*Item, 0),
	}
}

// NewItem creates a new order line.
func NewItem(productID id.ID, qty types.Quantity, unitPrice types.Money) *Item {
	return &Item{
		BaseEntity: entity.NewBaseEntity(),
		ProductID:  productID,
		Quantity:   qty,
		UnitPrice:  unitPrice,
	}
}

// Settle recomputes the line total.
func (i *Item) Settle() {
	i.Total = i.UnitPrice.Mul(i.Quantity.Decimal())
}

// RecalculateTotal recomputes the derived order total.
func (o *PurchaseOrder) RecalculateTotal() {
	total := types.ZeroMoney()
	for _, item := range o.Items {
		total = total.Add(item.Total)
	}
	o.TotalAmount = total
}

// IsReceived reports whether the order has been received.
func (o *PurchaseOrder) IsReceived() bool {
	return o.Status == StatusReceived
}

// CanModify rejects line edits after receipt; received lines are frozen.
func (o *PurchaseOrder) CanModify() error {
	if o.IsReceived() {
		return apperror.NewBusinessRule(
			apperror.CodeOrderReceived,
			"Order has already been received",
		).WithDetail("order_id", o.ID.String())
	}
	return nil
}

// Validate implements entity.Validatable.
func (o *PurchaseOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	for i, item := range o.Items {
		if err := item.Validate(ctx); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("lineNo", i+1)
			}
			return err
		}
	}

	return nil
}

// Validate checks line invariants.
func (i *Item) Validate(ctx context.Context) error {
	if id.IsNil(i.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if !i.Quantity.IsPositive() {
		return apperror.NewInvalidQuantity("quantity must be positive").
			WithDetail("quantity", i.Quantity.Int64())
	}
	if i.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}
	return nil
}
