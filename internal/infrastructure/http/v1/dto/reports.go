package dto

import (
	"time"

	"uniworld/internal/domain/reports"
)

// StockWindowRequest asks for a reconstruction window.
type StockWindowRequest struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// StockWindowResponse is the reconstructed stock picture.
type StockWindowResponse struct {
	ProductID     string    `json:"productId"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	EffectiveFrom time.Time `json:"effectiveFrom"`
	Opening       int64     `json:"opening"`
	Received      int64     `json:"received"`
	Issued        int64     `json:"issued"`
	Closing       int64     `json:"closing"`
	FromLedger    bool      `json:"fromLedger"`
}

// FromStockWindow maps one window.
func FromStockWindow(w *reports.StockWindow) StockWindowResponse {
	return StockWindowResponse{
		ProductID:     w.ProductID.String(),
		From:          w.From,
		To:            w.To,
		EffectiveFrom: w.EffectiveFrom,
		Opening:       w.Opening.Int64(),
		Received:      w.Received.Int64(),
		Issued:        w.Issued.Int64(),
		Closing:       w.Closing.Int64(),
		FromLedger:    w.FromLedger,
	}
}

// StockSummaryResponse aggregates windows for several products.
type StockSummaryResponse struct {
	From          time.Time             `json:"from"`
	To            time.Time             `json:"to"`
	Items         []StockWindowResponse `json:"items"`
	TotalReceived int64                 `json:"totalReceived"`
	TotalIssued   int64                 `json:"totalIssued"`
}

// FromStockSummary maps the summary report.
func FromStockSummary(s *reports.StockSummary) StockSummaryResponse {
	resp := StockSummaryResponse{
		From:          s.From,
		To:            s.To,
		TotalReceived: s.TotalReceived.Int64(),
		TotalIssued:   s.TotalIssued.Int64(),
	}
	for _, w := range s.Items {
		resp.Items = append(resp.Items, FromStockWindow(w))
	}
	return resp
}
