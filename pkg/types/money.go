package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a non-negative decimal currency amount. Subtraction clamps at
// zero: no pricing computation in this engine may produce a negative amount.
type Money struct {
	amount decimal.Decimal
}

// ZeroMoney is the additive identity.
var ZeroMoney = Money{}

// NewMoney builds a Money from a decimal, rejecting negative input.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("money amount cannot be negative: %s", amount)
	}
	return Money{amount: amount}, nil
}

// MoneyFromInt builds a Money from whole currency units.
func MoneyFromInt(units int64) Money {
	if units < 0 {
		units = 0
	}
	return Money{amount: decimal.NewFromInt(units)}
}

// MoneyFromFloat builds a Money from a float, clamping negatives to zero.
// Intended for test fixtures and config values, not arithmetic.
func MoneyFromFloat(value float64) Money {
	if value < 0 {
		value = 0
	}
	return Money{amount: decimal.NewFromFloat(value)}
}

func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// SubClamped subtracts other, flooring the result at zero.
func (m Money) SubClamped(other Money) Money {
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return ZeroMoney
	}
	return Money{amount: result}
}

// MulQty multiplies by a line quantity.
func (m Money) MulQty(qty int) Money {
	if qty <= 0 {
		return ZeroMoney
	}
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(qty)))}
}

// MulFraction scales by a non-negative fraction (e.g. 0.10 for 10%).
func (m Money) MulFraction(fraction decimal.Decimal) Money {
	if fraction.IsNegative() {
		return ZeroMoney
	}
	return Money{amount: m.amount.Mul(fraction)}
}

// Min returns the smaller of the two amounts.
func (m Money) Min(other Money) Money {
	if m.amount.GreaterThan(other.amount) {
		return other
	}
	return m
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// InexactFloat64 exposes the amount for multiplier math in the estimator.
func (m Money) InexactFloat64() float64 {
	return m.amount.InexactFloat64()
}

func (m Money) String() string {
	return m.amount.String()
}

// MarshalJSON renders the amount as a JSON string to avoid float drift.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", m.amount.String())), nil
}

// UnmarshalJSON accepts a quoted or bare decimal, rejecting negatives.
func (m *Money) UnmarshalJSON(data []byte) error {
	var parsed decimal.Decimal
	if err := parsed.UnmarshalJSON(data); err != nil {
		return err
	}
	if parsed.IsNegative() {
		return fmt.Errorf("money amount cannot be negative: %s", parsed)
	}
	m.amount = parsed
	return nil
}
