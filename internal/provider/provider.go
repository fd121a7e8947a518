// Package provider implements external rate providers for fetching currency exchange rates.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRateNotFound indicates the provider answered but has no rate for the pair.
var ErrRateNotFound = errors.New("rate not found")

// RatesProvider defines an interface for fetching exchange rates from external sources.
type RatesProvider interface {
	GetRate(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error)
}
