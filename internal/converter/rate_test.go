package converter

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRate_Decimal(t *testing.T) {
	r := NewRate(eurToCzk)

	assert.Equal(t, "26.25", r.String())
	assert.Equal(t, "0.0380952381", r.Inverse().Decimal(10).String())
	assert.Equal(t, "0.04", r.Inverse().Decimal(2).String())
	assert.True(t, r.Inverse().Inverse().Decimal(2).Equal(eurToCzk))
}

func TestRate_Undefined(t *testing.T) {
	for _, r := range []*Rate{NewRate(decimal.Zero).Inverse(), new(Rate)} {
		assert.False(t, r.defined())
		assert.True(t, r.Decimal(2).IsZero())
		assert.Equal(t, "undefined", r.String())
	}
	assert.True(t, NewRate(decimal.Zero).defined())
}

func TestRate_IsZero(t *testing.T) {
	assert.True(t, NewRate(decimal.Zero).IsZero())
	assert.False(t, NewRate(eurToCzk).IsZero())
	assert.False(t, NewRate(eurToCzk).Inverse().IsZero())
}

func TestRoundRatioBank(t *testing.T) {
	tests := []struct {
		name string
		num  string
		den  string
		want string
	}{
		{"exact", "10", "4", "2.50"},
		{"below half", "1", "3", "0.33"},
		{"above half", "2", "3", "0.67"},
		{"tie to even down", "0.125", "1", "0.12"},
		{"tie to even up", "0.135", "1", "0.14"},
		{"tie through division down", "0.25", "2", "0.12"},
		{"tie through division up", "0.27", "2", "0.14"},
		{"negative numerator", "-2", "3", "-0.67"},
		{"negative denominator", "2", "-3", "-0.67"},
		{"negative tie", "-0.27", "2", "-0.14"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := roundRatioBank(decimal.RequireFromString(tc.num), decimal.RequireFromString(tc.den), 2)
			assert.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}
