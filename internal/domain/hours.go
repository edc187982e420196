package domain

import "github.com/shopspring/decimal"

// Service-hour arithmetic. The convention throughout the ledger is that a
// missing hours value counts as zero.

// HoursOrZero returns the value of d, treating nil as zero.
func HoursOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// SubtractClamped returns total - hours floored at zero. The second return
// reports whether clamping fired, which means the ledger had drifted.
func SubtractClamped(total, hours decimal.Decimal) (decimal.Decimal, bool) {
	result := total.Sub(hours)
	if result.IsNegative() {
		return decimal.Zero, true
	}
	return result, false
}

// ValidHours reports whether h is usable as a service-hour amount.
func ValidHours(h decimal.Decimal) bool {
	return !h.IsNegative()
}
