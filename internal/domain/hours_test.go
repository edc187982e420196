package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHoursOrZero(t *testing.T) {
	assert.True(t, HoursOrZero(nil).IsZero())

	h := decimal.NewFromFloat(2.5)
	assert.Equal(t, "2.5", HoursOrZero(&h).String())
}

func TestSubtractClamped(t *testing.T) {
	total := decimal.NewFromInt(10)

	result, clamped := SubtractClamped(total, decimal.NewFromInt(4))
	assert.False(t, clamped)
	assert.Equal(t, "6", result.String())

	// Deleting more hours than the total holds floors at zero.
	result, clamped = SubtractClamped(total, decimal.NewFromFloat(12.5))
	assert.True(t, clamped)
	assert.True(t, result.IsZero())

	// Exact subtraction is not a clamp.
	result, clamped = SubtractClamped(total, decimal.NewFromInt(10))
	assert.False(t, clamped)
	assert.True(t, result.IsZero())
}

func TestValidHours(t *testing.T) {
	assert.True(t, ValidHours(decimal.Zero))
	assert.True(t, ValidHours(decimal.NewFromFloat(0.5)))
	assert.False(t, ValidHours(decimal.NewFromInt(-1)))
}
