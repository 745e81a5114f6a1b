// Package salesorder provides the SalesOrder document and its line
// settlement against the stock ledger.
package salesorder

import (
	"context"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/entity"
	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/pricing"
)

// DeliveryStatus tracks order fulfillment.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "P"
	DeliveryDelivered DeliveryStatus = "D"
)

// SalesOrder represents a customer order. Every line mutation settles
// against the stock ledger; the order total is always recomputed
// server-side.
type SalesOrder struct {
	entity.Document

	CustomerID id.ID `db:"customer_id" json:"customerId"`

	DeliveryStatus DeliveryStatus `db:"delivery_status" json:"deliveryStatus"`

	// Discount is the order-level discount amount
	Discount types.Money `db:"discount" json:"discount"`

	// ShippingCost is added on top of the discounted subtotal
	ShippingCost types.Money `db:"shipping_cost" json:"shippingCost"`

	// TotalAmount is derived: sum(line totals) - discount + shipping
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// Table part: ordered items
	Items []*Item `db:"-" json:"items"`
}

// Item is one sales order line. Price and per-unit discount are
// snapshots taken from the product at settlement time.
type Item struct {
	entity.BaseEntity

	OrderID   id.ID `db:"order_id" json:"orderId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitPrice is the product price at the time the line was created
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// UnitDiscount is the product's per-unit discount, refreshed on
	// every line update
	UnitDiscount types.Money `db:"unit_discount" json:"unitDiscount"`

	// DiscountTotal = quantity x unit discount
	DiscountTotal types.Money `db:"discount_total" json:"discountTotal"`

	// Total = quantity x (unit price - unit discount)
	Total types.Money `db:"total" json:"total"`
}

// NewSalesOrder creates a new sales order.
func NewSalesOrder(customerID id.ID) *SalesOrder {
	return &SalesOrder{
		Document:       entity.NewDocument(),
		CustomerID:     customerID,
		DeliveryStatus: DeliveryPending,
		Discount:       types.ZeroMoney(),
		ShippingCost:   types.ZeroMoney(),
		TotalAmount:    types.ZeroMoney(),
		Items:          make([]*Item, 0),
	}
}

// NewItem creates a new order line. Price and discount snapshots are
// filled during settlement.
func NewItem(productID id.ID, qty types.Quantity) *Item {
	return &Item{
		BaseEntity: entity.NewBaseEntity(),
		ProductID:  productID,
		Quantity:   qty,
	}
}

// Settle recomputes the line's monetary fields from its snapshots.
func (i *Item) Settle() {
	i.DiscountTotal = pricing.LineDiscountTotal(i.UnitDiscount, i.Quantity)
	i.Total = pricing.LineTotal(i.UnitPrice, i.UnitDiscount, i.Quantity)
}

// RecalculateTotal recomputes the derived order total from its items.
func (o *SalesOrder) RecalculateTotal() {
	lineTotals := make([]types.Money, len(o.Items))
	for i, item := range o.Items {
		lineTotals[i] = item.Total
	}
	o.TotalAmount = pricing.OrderTotal(lineTotals, o.Discount, o.ShippingCost)
}

// Validate implements entity.Validatable.
func (o *SalesOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if o.Discount.IsNegative() {
		return apperror.NewValidation("discount cannot be negative").
			WithDetail("field", "discount")
	}

	if o.ShippingCost.IsNegative() {
		return apperror.NewValidation("shipping cost cannot be negative").
			WithDetail("field", "shippingCost")
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
	return nil
}

// AllocatedLine is a display-only view of a line with its share of the
// order-level discount applied. Never persisted, never posted.
type AllocatedLine struct {
	Item *Item `json:"item"`

	// OrderDiscountShare is this line's proportional slice of the
	// order discount
	OrderDiscountShare types.Money `json:"orderDiscountShare"`

	// NetTotal = line total - discount share
	NetTotal types.Money `json:"netTotal"`
}

// AllocatedLines applies the proportional order discount across the
// order's items for display.
func (o *SalesOrder) AllocatedLines() []AllocatedLine {
	lineTotals := make([]types.Money, len(o.Items))
	for i, item := range o.Items {
		lineTotals[i] = item.Total
	}
	shares := pricing.AllocateOrderDiscount(lineTotals, o.Discount)

	out := make([]AllocatedLine, len(o.Items))
	for i, item := range o.Items {
		out[i] = AllocatedLine{
			Item:               item,
			OrderDiscountShare: shares[i],
			NetTotal:           item.Total.Sub(shares[i]),
		}
	}
	return out
}
