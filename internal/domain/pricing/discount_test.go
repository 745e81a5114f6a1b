package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniworld/internal/core/types"
)

func money(s string) types.Money {
	return types.MustMoney(s)
}

func TestEffectiveUnitPrice(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		discount string
		want     string
	}{
		{"no discount", "100", "0", "100"},
		{"partial discount", "100", "15.50", "84.50"},
		{"discount equals price", "100", "100", "0"},
		{"discount above price floors at zero", "100", "120", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EffectiveUnitPrice(money(tc.price), money(tc.discount))
			assert.True(t, got.Equal(money(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(money("49.99"), money("5"), 3)
	assert.True(t, got.Equal(money("134.97")), "got %s", got)
}

func TestLineDiscountTotal(t *testing.T) {
	got := LineDiscountTotal(money("2.50"), 4)
	assert.True(t, got.Equal(money("10")), "got %s", got)
}

func TestAllocateOrderDiscount_Proportional(t *testing.T) {
	lineTotals := []types.Money{money("300"), money("100")}
	shares := AllocateOrderDiscount(lineTotals, money("40"))

	require.Len(t, shares, 2)
	assert.True(t, shares[0].Equal(money("30")), "got %s", shares[0])
	assert.True(t, shares[1].Equal(money("10")), "got %s", shares[1])
}

func TestAllocateOrderDiscount_SharesSumToDiscount(t *testing.T) {
	lineTotals := []types.Money{money("33.33"), money("66.67"), money("150")}
	discount := money("25")
	shares := AllocateOrderDiscount(lineTotals, discount)

	sum := types.ZeroMoney()
	for _, s := range shares {
		sum = sum.Add(s)
	}
	// Rounding residue of at most a cent per line
	diff := discount.Sub(sum).Abs()
	assert.True(t, diff.LessThanOrEqual(money("0.03")), "residue %s", diff)
}

func TestAllocateOrderDiscount_ZeroSubtotal(t *testing.T) {
	lineTotals := []types.Money{money("0"), money("0")}
	shares := AllocateOrderDiscount(lineTotals, money("50"))

	for i, s := range shares {
		assert.True(t, s.IsZero(), "share %d should be zero, got %s", i, s)
	}
}

func TestAllocateOrderDiscount_NoLines(t *testing.T) {
	shares := AllocateOrderDiscount(nil, money("50"))
	assert.Empty(t, shares)
}

func TestOrderTotal(t *testing.T) {
	lineTotals := []types.Money{money("200"), money("100")}

	got := OrderTotal(lineTotals, money("30"), money("12.50"))
	assert.True(t, got.Equal(money("282.50")), "got %s", got)

	// Discount larger than subtotal floors at zero
	got = OrderTotal(lineTotals, money("500"), money("0"))
	assert.True(t, got.IsZero(), "got %s", got)
}
