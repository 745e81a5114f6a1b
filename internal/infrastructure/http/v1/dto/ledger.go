package dto

import (
	"time"

	"uniworld/internal/domain/ledger"
)

// LedgerHistoryRequest filters ledger history queries.
type LedgerHistoryRequest struct {
	PaginationRequest

	Kinds     []string   `form:"kind"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Reference string     `form:"reference"`
}

// AdjustStockRequest sets a product's balance to an absolute value.
type AdjustStockRequest struct {
	Quantity  int64  `json:"quantity" binding:"min=0"`
	Reference string `json:"reference" binding:"required"`
}

// LedgerEntryResponse contains one ledger entry.
type LedgerEntryResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"productId"`
	Kind          string    `json:"kind"`
	Quantity      int64     `json:"quantity"`
	PreviousStock int64     `json:"previousStock"`
	CurrentStock  int64     `json:"currentStock"`
	OccurredAt    time.Time `json:"occurredAt"`
	Reference     string    `json:"reference"`
	Owner         string    `json:"owner,omitempty"`
}

// FromLedgerEntry maps one entry.
func FromLedgerEntry(e *ledger.Entry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:            e.ID.String(),
		ProductID:     e.ProductID.String(),
		Kind:          string(e.Kind),
		Quantity:      e.Quantity.Int64(),
		PreviousStock: e.PreviousStock.Int64(),
		CurrentStock:  e.CurrentStock.Int64(),
		OccurredAt:    e.OccurredAt,
		Reference:     e.Reference,
		Owner:         e.Owner,
	}
}

// FromLedgerEntries maps an entry slice.
func FromLedgerEntries(items []*ledger.Entry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, len(items))
	for i, e := range items {
		out[i] = FromLedgerEntry(e)
	}
	return out
}
