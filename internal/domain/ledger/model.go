// Package ledger provides the append-only stock transaction ledger.
// Every entry carries the balance before and after it, so each product's
// history forms an unbroken chain that can be audited and replayed.
package ledger

import (
	"time"

	"uniworld/internal/core/id"
	"uniworld/internal/core/types"
)

// Kind classifies a ledger entry.
type Kind string

const (
	// KindIn records goods received (purchases).
	KindIn Kind = "IN"

	// KindOut records goods issued (sales).
	KindOut Kind = "OUT"

	// KindAdjust sets the balance to an absolute value (stocktake).
	KindAdjust Kind = "ADJUST"

	// KindReturn records goods returned by a customer.
	KindReturn Kind = "RETURN"
)

// Valid reports whether k is a known entry kind.
func (k Kind) Valid() bool {
	switch k {
	case KindIn, KindOut, KindAdjust, KindReturn:
		return true
	}
	return false
}

// Entry is one immutable ledger record. Entries are never updated or
// deleted; corrections are new compensating entries.
type Entry struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Kind Kind `db:"kind" json:"kind"`

	// Quantity is the entry magnitude. Always >= 0; direction comes
	// from Kind. For ADJUST it is the absolute balance being set.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// PreviousStock is the product balance before this entry.
	PreviousStock types.Quantity `db:"previous_stock" json:"previousStock"`

	// CurrentStock is the product balance after this entry. The next
	// entry's PreviousStock must equal this value.
	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`

	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`

	// Reference ties the entry to its originating document,
	// e.g. "SO-2025-00042" or "PO-2025-00007".
	Reference string `db:"reference" json:"reference"`

	// Owner is the acting user (provenance only).
	Owner string `db:"owner" json:"owner,omitempty"`
}
