package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var _ RatesProvider = (*ExchangeProviderFacade)(nil)

// errNoProviders is returned by a facade built without providers.
var errNoProviders = errors.New("no exchange rate providers configured")

// ExchangeProviderFacade tries its providers in order and returns the first rate found.
type ExchangeProviderFacade struct {
	providers []RatesProvider
}

// NewExchangeProviderFacade creates a facade over providers, in priority order.
func NewExchangeProviderFacade(providers ...RatesProvider) *ExchangeProviderFacade {
	return &ExchangeProviderFacade{providers: providers}
}

// GetRate reports ErrRateNotFound only when every provider lacks the pair.
// Any other failure, from any provider, makes the whole call a failure.
func (p *ExchangeProviderFacade) GetRate(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error) {
	if len(p.providers) == 0 {
		return decimal.Decimal{}, time.Time{}, errNoProviders
	}

	var failures []error
	for _, next := range p.providers {
		rate, at, err := next.GetRate(ctx, base, quote)
		switch {
		case err == nil:
			return rate, at, nil
		case errors.Is(err, ErrRateNotFound):
		default:
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("all providers failed: %w", errors.Join(failures...))
	}
	return decimal.Decimal{}, time.Time{}, fmt.Errorf("%w: no provider has %s/%s", ErrRateNotFound, base, quote)
}
