package dto

import (
	"time"

	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
	"uniworld/internal/domain/documents/salesreturn"
)

// CreateReturnLineRequest is one return line. A zero quantity records
// that the line was offered for return but nothing came back.
type CreateReturnLineRequest struct {
	SalesOrderItemID string `json:"salesOrderItemId" binding:"required"`
	Quantity         int64  `json:"quantity" binding:"min=0"`
}

// CreateReturnRequest for creating sales returns.
type CreateReturnRequest struct {
	SalesOrderID string                    `json:"salesOrderId" binding:"required"`
	Date         *time.Time                `json:"date"`
	ReturnedBy   string                    `json:"returnedBy"`
	Notes        string                    `json:"notes"`
	Items        []CreateReturnLineRequest `json:"items" binding:"required,min=1,dive"`
}

// ToEntity converts the request into a return document.
func (r *CreateReturnRequest) ToEntity() (*salesreturn.ReturnSales, error) {
	orderID, err := id.Parse(r.SalesOrderID)
	if err != nil {
		return nil, err
	}

	ret := salesreturn.NewReturnSales(orderID)
	if r.Date != nil {
		ret.Date = *r.Date
	}
	ret.ReturnedBy = r.ReturnedBy
	ret.Notes = r.Notes

	for _, line := range r.Items {
		itemID, err := id.Parse(line.SalesOrderItemID)
		if err != nil {
			return nil, err
		}
		ret.Items = append(ret.Items, salesreturn.NewItem(itemID, types.Quantity(line.Quantity)))
	}

	return ret, nil
}

// UpdateReturnLineRequest for changing a returned quantity.
type UpdateReturnLineRequest struct {
	Quantity int64 `json:"quantity" binding:"min=0"`
}

// ReturnItemResponse contains one return line.
type ReturnItemResponse struct {
	ID               string `json:"id"`
	SalesOrderItemID string `json:"salesOrderItemId"`
	ProductID        string `json:"productId"`
	Quantity         int64  `json:"quantity"`
	UnitPrice        string `json:"unitPrice"`
	Total            string `json:"total"`
}

// FromReturnItem maps one line.
func FromReturnItem(i *salesreturn.Item) ReturnItemResponse {
	return ReturnItemResponse{
		ID:               i.ID.String(),
		SalesOrderItemID: i.SalesOrderItemID.String(),
		ProductID:        i.ProductID.String(),
		Quantity:         i.Quantity.Int64(),
		UnitPrice:        i.UnitPrice.String(),
		Total:            i.Total.String(),
	}
}

// ReturnResponse contains return document fields.
type ReturnResponse struct {
	ID           string               `json:"id"`
	DeletionMark bool                 `json:"deletionMark"`
	Version      int                  `json:"version"`
	Number       string               `json:"number"`
	Date         time.Time            `json:"date"`
	SalesOrderID string               `json:"salesOrderId"`
	ReturnedBy   string               `json:"returnedBy,omitempty"`
	TotalAmount  string               `json:"totalAmount"`
	Notes        string               `json:"notes,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
	Items        []ReturnItemResponse `json:"items,omitempty"`
}

// FromReturn maps a return with its lines.
func FromReturn(r *salesreturn.ReturnSales) ReturnResponse {
	resp := ReturnResponse{
		ID:           r.ID.String(),
		DeletionMark: r.DeletionMark,
		Version:      r.Version,
		Number:       r.Number,
		Date:         r.Date,
		SalesOrderID: r.SalesOrderID.String(),
		ReturnedBy:   r.ReturnedBy,
		TotalAmount:  r.TotalAmount.String(),
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, item := range r.Items {
		resp.Items = append(resp.Items, FromReturnItem(item))
	}
	return resp
}

// FromReturns maps return headers.
func FromReturns(items []*salesreturn.ReturnSales) []ReturnResponse {
	out := make([]ReturnResponse, len(items))
	for i, r := range items {
		out[i] = FromReturn(r)
	}
	return out
}
