// Package converter converts monetary amounts between currencies.
package converter

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits of every conversion result.
const Scale int32 = 2

// Currency is an opaque currency identifier such as an ISO 4217 code.
// The empty Currency is treated as absent.
type Currency string

func (c Currency) String() string { return string(c) }

// RateSource provides exchange rates for ordered currency pairs.
// A nil rate with a nil error means the source has no rate for the pair.
// Implementations must be safe for concurrent use if the Converter is shared.
type RateSource interface {
	ExchangeRate(ctx context.Context, source, target Currency) (*Rate, error)
}

// RateFunc adapts a plain function to RateSource.
type RateFunc func(ctx context.Context, source, target Currency) (*Rate, error)

// ExchangeRate calls f.
func (f RateFunc) ExchangeRate(ctx context.Context, source, target Currency) (*Rate, error) {
	return f(ctx, source, target)
}

// Converter converts amounts using a RateSource supplied at construction.
type Converter struct {
	rates RateSource
}

// New creates a Converter backed by rates.
func New(rates RateSource) *Converter {
	return &Converter{rates: rates}
}

// Convert returns amount expressed in target currency, rounded half-even to
// Scale fractional digits. Same-currency conversions never consult the
// RateSource. Lookup failures and missing rates both yield *UnknownRateError.
func (c *Converter) Convert(ctx context.Context, source, target Currency, amount *decimal.Decimal) (decimal.Decimal, error) {
	if err := validateArgs(source, target, amount); err != nil {
		return decimal.Decimal{}, err
	}

	if source == target {
		return amount.RoundBank(Scale), nil
	}

	rate, err := c.rates.ExchangeRate(ctx, source, target)
	if err != nil {
		return decimal.Decimal{}, &UnknownRateError{Source: source, Target: target, Reason: ReasonLookupFailed}
	}
	if rate == nil || !rate.defined() {
		return decimal.Decimal{}, &UnknownRateError{Source: source, Target: target, Reason: ReasonUnknownCurrency}
	}

	return rate.apply(*amount, Scale), nil
}

func validateArgs(source, target Currency, amount *decimal.Decimal) error {
	var missing []string
	if source == "" {
		missing = append(missing, "source currency")
	}
	if target == "" {
		missing = append(missing, "target currency")
	}
	if amount == nil {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidArgument, strings.Join(missing, ", "))
	}
	return nil
}
