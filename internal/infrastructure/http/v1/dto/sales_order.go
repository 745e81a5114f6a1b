package dto

import (
	"time"

	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/documents/salesorder"
)

// CreateSalesOrderLineRequest is one initial order line. Prices and
// discounts are snapshotted server-side from the product.
type CreateSalesOrderLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

// CreateSalesOrderRequest for creating sales orders.
type CreateSalesOrderRequest struct {
	CustomerID   string                        `json:"customerId" binding:"required"`
	Date         *time.Time                    `json:"date"`
	Discount     string                        `json:"discount"`
	ShippingCost string                        `json:"shippingCost"`
	Notes        string                        `json:"notes"`
	Items        []CreateSalesOrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

// ToEntity converts the request into a sales order.
func (r *CreateSalesOrderRequest) ToEntity() (*salesorder.SalesOrder, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, err
	}

	o := salesorder.NewSalesOrder(customerID)
	if r.Date != nil {
		o.Date = *r.Date
	}
	o.Notes = r.Notes

	if r.Discount != "" {
		if o.Discount, err = types.NewMoneyFromString(r.Discount); err != nil {
			return nil, err
		}
	}
	if r.ShippingCost != "" {
		if o.ShippingCost, err = types.NewMoneyFromString(r.ShippingCost); err != nil {
			return nil, err
		}
	}

	for _, line := range r.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, salesorder.NewItem(productID, types.Quantity(line.Quantity)))
	}

	return o, nil
}

// UpdateSalesOrderRequest updates header fields. Line changes go
// through the line endpoints so each one settles against the ledger.
type UpdateSalesOrderRequest struct {
	Discount     *string `json:"discount"`
	ShippingCost *string `json:"shippingCost"`
	Notes        *string `json:"notes"`
	Version      int     `json:"version" binding:"required,min=1"`
}

// ApplyTo overlays the request onto an existing order.
func (r *UpdateSalesOrderRequest) ApplyTo(o *salesorder.SalesOrder) error {
	if r.Discount != nil {
		discount, err := types.NewMoneyFromString(*r.Discount)
		if err != nil {
			return err
		}
		o.Discount = discount
	}
	if r.ShippingCost != nil {
		shipping, err := types.NewMoneyFromString(*r.ShippingCost)
		if err != nil {
			return err
		}
		o.ShippingCost = shipping
	}
	if r.Notes != nil {
		o.Notes = *r.Notes
	}
	o.Version = r.Version
	return nil
}

// AddSalesOrderLineRequest for adding a line to an existing order.
type AddSalesOrderLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

// UpdateSalesOrderLineRequest for changing a line quantity.
type UpdateSalesOrderLineRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

// SalesOrderItemResponse contains one order line.
type SalesOrderItemResponse struct {
	ID            string `json:"id"`
	ProductID     string `json:"productId"`
	Quantity      int64  `json:"quantity"`
	UnitPrice     string `json:"unitPrice"`
	UnitDiscount  string `json:"unitDiscount"`
	DiscountTotal string `json:"discountTotal"`
	Total         string `json:"total"`
}

// FromSalesOrderItem maps one line.
func FromSalesOrderItem(i *salesorder.Item) SalesOrderItemResponse {
	return SalesOrderItemResponse{
		ID:            i.ID.String(),
		ProductID:     i.ProductID.String(),
		Quantity:      i.Quantity.Int64(),
		UnitPrice:     i.UnitPrice.String(),
		UnitDiscount:  i.UnitDiscount.String(),
		DiscountTotal: i.DiscountTotal.String(),
		Total:         i.Total.String(),
	}
}

// SalesOrderResponse contains order fields.
type SalesOrderResponse struct {
	ID             string                   `json:"id"`
	DeletionMark   bool                     `json:"deletionMark"`
	Version        int                      `json:"version"`
	Number         string                   `json:"number"`
	Date           time.Time                `json:"date"`
	CustomerID     string                   `json:"customerId"`
	DeliveryStatus string                   `json:"deliveryStatus"`
	Discount       string                   `json:"discount"`
	ShippingCost   string                   `json:"shippingCost"`
	TotalAmount    string                   `json:"totalAmount"`
	Notes          string                   `json:"notes,omitempty"`
	CreatedAt      time.Time                `json:"createdAt"`
	UpdatedAt      time.Time                `json:"updatedAt"`
	Items          []SalesOrderItemResponse `json:"items,omitempty"`
}

// FromSalesOrder maps an order with its lines.
func FromSalesOrder(o *salesorder.SalesOrder) SalesOrderResponse {
	resp := SalesOrderResponse{
		ID:             o.ID.String(),
		DeletionMark:   o.DeletionMark,
		Version:        o.Version,
		Number:         o.Number,
		Date:           o.Date,
		CustomerID:     o.CustomerID.String(),
		DeliveryStatus: string(o.DeliveryStatus),
		Discount:       o.Discount.String(),
		ShippingCost:   o.ShippingCost.String(),
		TotalAmount:    o.TotalAmount.String(),
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, FromSalesOrderItem(item))
	}
	return resp
}

// FromSalesOrders maps order headers.
func FromSalesOrders(items []*salesorder.SalesOrder) []SalesOrderResponse {
	out := make([]SalesOrderResponse, len(items))
	for i, o := range items {
		out[i] = FromSalesOrder(o)
	}
	return out
}

// AllocatedLineResponse is the display view of a line with its share
// of the order discount.
type AllocatedLineResponse struct {
	Item               SalesOrderItemResponse `json:"item"`
	OrderDiscountShare string                 `json:"orderDiscountShare"`
	NetTotal           string                 `json:"netTotal"`
}

// FromAllocatedLines maps allocated lines.
func FromAllocatedLines(lines []salesorder.AllocatedLine) []AllocatedLineResponse {
	out := make([]AllocatedLineResponse, len(lines))
	for i, l := range lines {
		out[i] = AllocatedLineResponse{
			Item:               FromSalesOrderItem(l.Item),
			OrderDiscountShare: l.OrderDiscountShare.String(),
			NetTotal:           l.NetTotal.String(),
		}
	}
	return out
}
