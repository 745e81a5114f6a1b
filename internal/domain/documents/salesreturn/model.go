// Package salesreturn provides the ReturnSales document. Returns hand
// goods back to stock, capped line by line at what the referenced sales
// order line actually shipped.
package salesreturn

import (
	"context"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/entity"
	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
)

// ReturnSales represents a customer return against a sales order.
type ReturnSales struct {
	entity.Document

	SalesOrderID id.ID `db:"sales_order_id" json:"salesOrderId"`

	// ReturnedBy is the employee who processed the return
	ReturnedBy string `db:"returned_by" json:"returnedBy,omitempty"`

	// TotalAmount is derived: sum of line totals
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// Table part: returned items
	Items []*Item `db:"-" json:"items"`
}

// Item is one return line referencing a sales order line. A zero
// quantity means the line was offered for return but nothing came back.
type Item struct {
	entity.BaseEntity

	ReturnID id.ID `db:"return_id" json:"returnId"`

	// SalesOrderItemID is the shipped line being returned against
	SalesOrderItemID id.ID `db:"sales_order_item_id" json:"salesOrderItemId"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitPrice is the effective unit price copied from the original
	// line at return time
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// Total = quantity x unit price
	Total types.Money `db:"total" json:"total"`
}

// NewReturnSales creates a new return document.
func NewReturnSales(salesOrderID id.ID) *ReturnSales {
	return &ReturnSales{
		Document:     entity.NewDocument(),
		SalesOrderID: salesOrderID,
		TotalAmount:  types.ZeroMoney(),
		Items:        make([]*Item, 0),
	}
}

// NewItem creates a new return line. Product and price are copied from
// the referenced order line during settlement.
func NewItem(salesOrderItemID id.ID, qty types.Quantity) *Item {
	return &Item{
		BaseEntity:       entity.NewBaseEntity(),
		SalesOrderItemID: salesOrderItemID,
		Quantity:         qty,
	}
}

// Settle recomputes the line total.
func (i *Item) Settle() {
	i.Total = i.UnitPrice.Mul(i.Quantity.Decimal())
}

// RecalculateTotal recomputes the derived document total.
func (r *ReturnSales) RecalculateTotal() {
	total := types.ZeroMoney()
	for _, item := range r.Items {
		total = total.Add(item.Total)
	}
	r.TotalAmount = total
}

// HasReturnedItems reports whether any line carries a non-zero quantity.
func (r *ReturnSales) HasReturnedItems() bool {
	for _, item := range r.Items {
		if item.Quantity.IsPositive() {
			return true
		}
	}
	return false
}

// Validate implements entity.Validatable.
func (r *ReturnSales) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(r.SalesOrderID) {
		return apperror.NewValidation("sales order is required").
			WithDetail("field", "salesOrderId")
	}

	if len(r.Items) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "items")
	}

	for i, item := range r.Items {
		if id.IsNil(item.SalesOrderItemID) {
			return apperror.NewValidation("sales order item is required").
				WithDetail("field", "salesOrderItemId").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity.IsNegative() {
			return apperror.NewInvalidQuantity("quantity cannot be negative").
				WithDetail("quantity", item.Quantity.Int64()).
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
