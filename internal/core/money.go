// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals. Aggregates are accumulated at full
// precision and rounded once, when a value leaves the engine, by Report.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrInvalidAmount for invalid formats, non-positive values and
// fractions of a cent.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() || !IsWholeCents(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// IsWholeCents reports whether d has no more than two significant decimals.
func IsWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// Report rounds an amount to 2 places for output.
func Report(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// ReportPtr is Report for optional amounts.
func ReportPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := Report(*d)
	return &v
}

// SafeDiv divides a by b, returning zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// Percent returns part as a percentage of total, zero when total is zero.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	return SafeDiv(part.Mul(hundred), total)
}

// Sum adds every amount.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
