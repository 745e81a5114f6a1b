// Package pricing provides pure price and discount arithmetic.
// Functions here never touch storage; callers persist the results.
package pricing

import (
	"uniworld/internal/core/types"
)

// EffectiveUnitPrice returns the unit price after the per-unit discount,
// floored at zero.
func EffectiveUnitPrice(unitPrice, unitDiscount types.Money) types.Money {
	effective := unitPrice.Sub(unitDiscount)
	if effective.IsNegative() {
		return types.ZeroMoney()
	}
	return effective
}

// LineTotal returns quantity x effective unit price.
func LineTotal(unitPrice, unitDiscount types.Money, qty types.Quantity) types.Money {
	return EffectiveUnitPrice(unitPrice, unitDiscount).Mul(qty.Decimal())
}

// LineDiscountTotal returns quantity x per-unit discount.
func LineDiscountTotal(unitDiscount types.Money, qty types.Quantity) types.Money {
	return unitDiscount.Mul(qty.Decimal())
}

// AllocateOrderDiscount splits an order-level discount across lines in
// proportion to each line's share of the subtotal. When the subtotal is
// zero every share is zero; the discount is not allocated.
//
// Shares are rounded to 2 decimal places. Rounding residue stays
// unallocated; callers display shares, they never post them.
func AllocateOrderDiscount(lineTotals []types.Money, orderDiscount types.Money) []types.Money {
	shares := make([]types.Money, len(lineTotals))
	for i := range shares {
		shares[i] = types.ZeroMoney()
	}

	if orderDiscount.IsZero() || len(lineTotals) == 0 {
		return shares
	}

	subtotal := types.ZeroMoney()
	for _, t := range lineTotals {
		subtotal = subtotal.Add(t)
	}
	if subtotal.IsZero() {
		return shares
	}

	for i, t := range lineTotals {
		shares[i] = t.Div(subtotal).Mul(orderDiscount).Round(2)
	}
	return shares
}

// OrderTotal computes the order amount: line totals minus the order
// discount plus shipping, floored at zero.
func OrderTotal(lineTotals []types.Money, orderDiscount, shipping types.Money) types.Money {
	total := types.ZeroMoney()
	for _, t := range lineTotals {
		total = total.Add(t)
	}
	total = total.Sub(orderDiscount).Add(shipping)
	if total.IsNegative() {
		return types.ZeroMoney()
	}
	return total
}
