// Package core provides money parsing and handling utilities.
//
// Amounts are exact decimals. Storage keeps integer cents; arithmetic and
// display go through shopspring/decimal so sums never pick up binary
// floating-point error.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal currency amount.
type Money struct {
	value decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{value: decimal.Zero}

func MoneyFromCents(cents int64) Money {
	return Money{value: decimal.New(cents, -2)}
}

func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{value: d}
}

// ParseAmount converts a user supplied decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero to whole cents. Signs, empty input and non-positive
// values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
//	ParseAmount("0")      -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	m := Money{value: d.Round(2)}
	if err := m.Validate(); err != nil {
		return Zero, err
	}
	return m, nil
}

func (m Money) Validate() error {
	if !m.value.IsPositive() {
		return ErrInvalidAmount
	}
	// DECIMAL(10,2) upper bound
	if m.value.GreaterThanOrEqual(decimal.New(1, 8)) {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Decimal() decimal.Decimal { return m.value }

// Cents returns the amount in cents, rounding half away from zero.
func (m Money) Cents() int64 {
	return m.value.Shift(2).Round(0).IntPart()
}

func (m Money) Add(o Money) Money {
	return Money{value: m.value.Add(o.value)}
}

// Div divides by a positive integer without rounding the result.
func (m Money) Div(n int) Money {
	return Money{value: m.value.Div(decimal.NewFromInt(int64(n)))}
}

func (m Money) GreaterThan(o Money) bool { return m.value.GreaterThan(o.value) }

func (m Money) Equal(o Money) bool { return m.value.Equal(o.value) }

func (m Money) IsZero() bool { return m.value.IsZero() }

// Rounded returns the amount rounded half away from zero to two decimal places.
func (m Money) Rounded() Money {
	return Money{value: m.value.Round(2)}
}

// String formats the amount with exactly two decimals.
func (m Money) String() string {
	return m.value.StringFixed(2)
}

// MarshalJSON renders a JSON number with exactly two decimals, e.g. 35.00.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	if str == "" || str == "null" {
		*m = Zero
		return nil
	}
	d, err := decimal.NewFromString(str)
	if err != nil {
		return ErrInvalidAmount
	}
	m.value = d
	return nil
}
