package dto

import (
	"time"

	"uniworld/internal/domain/documents/invoice"
)

// CreateInvoiceRequest issues an invoice for a sales order. Lines are
// copied from the order server-side.
type CreateInvoiceRequest struct {
	SalesOrderID string     `json:"salesOrderId" binding:"required"`
	DueDate      *time.Time `json:"dueDate"`
	Notes        string     `json:"notes"`
}

// InvoiceItemResponse contains one invoice line.
type InvoiceItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Total     string `json:"total"`
}

// FromInvoiceItem maps one line.
func FromInvoiceItem(i *invoice.Item) InvoiceItemResponse {
	return InvoiceItemResponse{
		ID:        i.ID.String(),
		ProductID: i.ProductID.String(),
		Quantity:  i.Quantity.Int64(),
		UnitPrice: i.UnitPrice.String(),
		Total:     i.Total.String(),
	}
}

// InvoiceResponse contains invoice document fields.
type InvoiceResponse struct {
	ID            string                `json:"id"`
	DeletionMark  bool                  `json:"deletionMark"`
	Version       int                   `json:"version"`
	Number        string                `json:"number"`
	Date          time.Time             `json:"date"`
	CustomerID    string                `json:"customerId"`
	SalesOrderID  string                `json:"salesOrderId"`
	DueDate       time.Time             `json:"dueDate"`
	PaymentStatus string                `json:"paymentStatus"`
	TotalAmount   string                `json:"totalAmount"`
	Notes         string                `json:"notes,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
	Items         []InvoiceItemResponse `json:"items,omitempty"`
}

// FromInvoice maps an invoice with its lines.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID.String(),
		DeletionMark:  inv.DeletionMark,
		Version:       inv.Version,
		Number:        inv.Number,
		Date:          inv.Date,
		CustomerID:    inv.CustomerID.String(),
		SalesOrderID:  inv.SalesOrderID.String(),
		DueDate:       inv.DueDate,
		PaymentStatus: string(inv.PaymentStatus),
		TotalAmount:   inv.TotalAmount.String(),
		Notes:         inv.Notes,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, FromInvoiceItem(item))
	}
	return resp
}

// FromInvoices maps invoice headers.
func FromInvoices(items []*invoice.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(items))
	for i, inv := range items {
		out[i] = FromInvoice(inv)
	}
	return out
}
