// Package reports provides point-in-time stock reconstruction from the
// ledger.
package reports

import (
	"time"

	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
)

// Config holds report configuration.
type Config struct {
	// MinStockDate is the floor date before which ledger history is
	// not trusted (balances predate the balance-carrying schema).
	// Zero means no floor.
	MinStockDate time.Time
}

// StockWindow is the reconstructed stock picture for one product over
// a date window.
type StockWindow struct {
	ProductID id.ID `json:"productId"`

	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	// EffectiveFrom is the window start after the floor date is
	// applied: max(From, MinStockDate).
	EffectiveFrom time.Time `json:"effectiveFrom"`

	// Opening is the balance at EffectiveFrom
	Opening types.Quantity `json:"opening"`

	// Received sums IN and RETURN quantities inside the window
	Received types.Quantity `json:"received"`

	// Issued sums OUT quantities inside the window
	Issued types.Quantity `json:"issued"`

	// Closing is the balance at To
	Closing types.Quantity `json:"closing"`

	// FromLedger is true when both opening and closing came from
	// ledger entries. When false a cached-balance or before-floor
	// fallback fired and closing == opening + received - issued is
	// not guaranteed.
	FromLedger bool `json:"fromLedger"`
}

// StockSummary aggregates windows for several products.
type StockSummary struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	Items []*StockWindow `json:"items"`

	TotalReceived types.Quantity `json:"totalReceived"`
	TotalIssued   types.Quantity `json:"totalIssued"`
}
