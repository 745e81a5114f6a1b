// Package invoice provides the ARInvoice document: accounts-receivable
// billing for a sales order. At most one invoice exists per order, and
// invoicing never touches the stock ledger.
package invoice

import (
	"context"
	"time"

	"uniworld/internal/core/apperror"
	"uniworld/internal/core/entity"
	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
)

// PaymentStatus tracks whether the invoice has been settled.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "P"
	PaymentCompleted PaymentStatus = "C"
)

// Invoice represents an AR invoice issued against a sales order.
type Invoice struct {
	entity.Document

	CustomerID id.ID `db:"customer_id" json:"customerId"`

	// SalesOrderID is the billed order; unique across invoices
	SalesOrderID id.ID `db:"sales_order_id" json:"salesOrderId"`

	DueDate time.Time `db:"due_date" json:"dueDate"`

	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	// TotalAmount is derived: sum of line totals
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// Table part: billed items
	Items []*Item `db:"-" json:"items"`
}

// Item is one invoice line, copied from the order at invoicing time.
type Item struct {
	entity.BaseEntity

	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`

	// Total = quantity x unit price
	Total types.Money `db:"total" json:"total"`
}

// NewInvoice creates a new pending invoice.
func NewInvoice(customerID, salesOrderID id.ID) *Invoice {
	return &Invoice{
		Document:      entity.NewDocument(),
		CustomerID:    customerID,
		SalesOrderID:  salesOrderID,
		PaymentStatus: PaymentPending,
		TotalAmount:   types.ZeroMoney(),
		Items:         make([]*Item, 0),
	}
}

// NewItem creates a new invoice line.
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

// RecalculateTotal recomputes the derived invoice total.
func (inv *Invoice) RecalculateTotal() {
	total := types.ZeroMoney()
	for _, item := range inv.Items {
		total = total.Add(item.Total)
	}
	inv.TotalAmount = total
}

// IsPaid reports whether the invoice has been settled.
func (inv *Invoice) IsPaid() bool {
	return inv.PaymentStatus == PaymentCompleted
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(inv.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if id.IsNil(inv.SalesOrderID) {
		return apperror.NewValidation("sales order is required").
			WithDetail("field", "salesOrderId")
	}

	if inv.DueDate.IsZero() {
		return apperror.NewValidation("due date is required").
			WithDetail("field", "dueDate")
	}

	for i, item := range inv.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "productId").
				WithDetail("lineNo", i+1)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewInvalidQuantity("quantity must be positive").
				WithDetail("quantity", item.Quantity.Int64()).
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
