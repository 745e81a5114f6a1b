// Package types provides shared value types for money and stock quantities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// decimal.Decimal avoids the floating-point drift that plagues
// price * quantity arithmetic.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// Prefer NewMoneyFromString for exact values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a decimal string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panicking on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroMoney returns the zero Money value.
func ZeroMoney() Money {
	return decimal.Zero
}

// Quantity is a whole-unit stock count. The ledger tracks integer
// quantities only; fractional stock does not exist in this domain.
type Quantity int64

func NewQuantity(v int64) Quantity { return Quantity(v) }

func (q Quantity) Int64() int64 { return int64(q) }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// Decimal converts the quantity for monetary arithmetic.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(q))
}
