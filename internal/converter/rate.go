package converter

import (
	"github.com/shopspring/decimal"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// Rate is an exchange-rate multiplier kept as the exact ratio num/den.
// A quoted rate has den == 1; its inverse swaps the two, so converting in
// the opposite direction of a quote loses nothing before the final rounding.
type Rate struct {
	num decimal.Decimal
	den decimal.Decimal
}

// NewRate returns the rate that multiplies amounts by value.
func NewRate(value decimal.Decimal) *Rate {
	return &Rate{num: value, den: one}
}

// Inverse returns the rate for the opposite direction of the pair.
func (r *Rate) Inverse() *Rate {
	return &Rate{num: r.den, den: r.num}
}

// defined reports whether the ratio has a non-zero denominator. The zero
// Rate and the inverse of a zero rate are not.
func (r *Rate) defined() bool {
	return !r.den.IsZero()
}

// IsZero reports whether the rate multiplies everything to zero.
func (r *Rate) IsZero() bool {
	return r.num.IsZero()
}

// Decimal returns the rate rounded half-even to places fractional digits.
// An undefined rate yields zero.
func (r *Rate) Decimal(places int32) decimal.Decimal {
	if !r.defined() {
		return decimal.Zero
	}
	return roundRatioBank(r.num, r.den, places)
}

// String returns a quoted rate exactly as quoted. Derived ratios, such as
// an inverse, are rounded half-even to ten fractional digits.
func (r *Rate) String() string {
	switch {
	case !r.defined():
		return "undefined"
	case r.den.Equal(one):
		return r.num.String()
	}
	return r.Decimal(10).String()
}

// apply returns amount*rate rounded half-even to places.
func (r *Rate) apply(amount decimal.Decimal, places int32) decimal.Decimal {
	return roundRatioBank(amount.Mul(r.num), r.den, places)
}

// roundRatioBank rounds num/den half-even to places fractional digits
// using exact integer division, so ties are detected on the true quotient.
func roundRatioBank(num, den decimal.Decimal, places int32) decimal.Decimal {
	if den.Equal(one) {
		return num.RoundBank(places)
	}

	// num = den*q + rem, q truncated toward zero at places, |rem| < |den|*10^-places
	q, rem := num.QuoRem(den, places)
	switch rem.Abs().Shift(places).Mul(two).Cmp(den.Abs()) {
	case -1:
		return q
	case 0:
		if q.Shift(places).BigInt().Bit(0) == 0 {
			return q
		}
	}

	step := decimal.New(1, -places)
	if num.Sign()*den.Sign() < 0 {
		return q.Sub(step)
	}
	return q.Add(step)
}
