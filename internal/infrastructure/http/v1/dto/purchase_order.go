package dto

import (
	"time"

	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/documents/purchaseorder"
)

// CreatePurchaseOrderLineRequest is one initial order line.
type CreatePurchaseOrderLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	UnitPrice string `json:"unitPrice" binding:"required"`
}

// CreatePurchaseOrderRequest for creating purchase orders.
type CreatePurchaseOrderRequest struct {
	SupplierID string                           `json:"supplierId" binding:"required"`
	Date       *time.Time                       `json:"date"`
	Notes      string                           `json:"notes"`
	Items      []CreatePurchaseOrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

// ToEntity converts the request into a purchase order.
func (r *CreatePurchaseOrderRequest) ToEntity() (*purchaseorder.PurchaseOrder, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, err
	}

	o := purchaseorder.NewPurchaseOrder(supplierID)
	if r.Date != nil {
		o.Date = *r.Date
	}
	o.Notes = r.Notes

	for _, line := range r.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		unitPrice, err := types.NewMoneyFromString(line.UnitPrice)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, purchaseorder.NewItem(productID, types.Quantity(line.Quantity), unitPrice))
	}

	return o, nil
}

// AddPurchaseOrderLineRequest for adding a line to a pending order.
type AddPurchaseOrderLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	UnitPrice string `json:"unitPrice" binding:"required"`
}

// UpdatePurchaseOrderLineRequest for changing a pending line.
type UpdatePurchaseOrderLineRequest struct {
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	UnitPrice string `json:"unitPrice" binding:"required"`
}

// PurchaseOrderItemResponse contains one order line.
type PurchaseOrderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Total     string `json:"total"`
}

// FromPurchaseOrderItem maps one line.
func FromPurchaseOrderItem(i *purchaseorder.Item) PurchaseOrderItemResponse {
	return PurchaseOrderItemResponse{
		ID:        i.ID.String(),
		ProductID: i.ProductID.String(),
		Quantity:  i.Quantity.Int64(),
		UnitPrice: i.UnitPrice.String(),
		Total:     i.Total.String(),
	}
}

// PurchaseOrderResponse contains order fields.
type PurchaseOrderResponse struct {
	ID           string                      `json:"id"`
	DeletionMark bool                        `json:"deletionMark"`
	Version      int                         `json:"version"`
	Number       string                      `json:"number"`
	Date         time.Time                   `json:"date"`
	SupplierID   string                      `json:"supplierId"`
	Status       string                      `json:"status"`
	TotalAmount  string                      `json:"totalAmount"`
	Notes        string                      `json:"notes,omitempty"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
	Items        []PurchaseOrderItemResponse `json:"items,omitempty"`
}

// FromPurchaseOrder maps an order with its lines.
func FromPurchaseOrder(o *purchaseorder.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:           o.ID.String(),
		DeletionMark: o.DeletionMark,
		Version:      o.Version,
		Number:       o.Number,
		Date:         o.Date,
		SupplierID:   o.SupplierID.String(),
		Status:       string(o.Status),
		TotalAmount:  o.TotalAmount.String(),
		Notes:        o.Notes,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, FromPurchaseOrderItem(item))
	}
	return resp
}

// FromPurchaseOrders maps order headers.
func FromPurchaseOrders(items []*purchaseorder.PurchaseOrder) []PurchaseOrderResponse {
	out := make([]PurchaseOrderResponse, len(items))
	for i, o := range items {
		out[i] = FromPurchaseOrder(o)
	}
	return out
}
