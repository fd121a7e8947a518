package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"currencyconverter/internal/converter"
	"currencyconverter/internal/provider"
)

var _ converter.RateSource = (*StoreRateSource)(nil)

// StoreRateSource serves converter lookups from stored rate updates.
// Lookup order: the pair itself, the inverted opposite pair, then the live
// provider when one is configured. Storage and provider faults are wrapped
// in converter.ErrExternalServiceFailure.
type StoreRateSource struct {
	rates *RateService
	live  provider.RatesProvider
	log   *zap.SugaredLogger
}

// NewStoreRateSource creates a StoreRateSource. live may be nil.
func NewStoreRateSource(rates *RateService, live provider.RatesProvider, logger *zap.SugaredLogger) *StoreRateSource {
	return &StoreRateSource{rates: rates, live: live, log: logger}
}

// ExchangeRate implements converter.RateSource.
func (s *StoreRateSource) ExchangeRate(ctx context.Context, source, target converter.Currency) (*converter.Rate, error) {
	base, quote := source.String(), target.String()

	direct, err := s.rates.latest(ctx, base, quote)
	if err != nil {
		return nil, s.failure("stored rate lookup", base, quote, err)
	}
	if direct != nil && direct.Rate != nil {
		return converter.NewRate(*direct.Rate), nil
	}

	opposite, err := s.rates.latest(ctx, quote, base)
	if err != nil {
		return nil, s.failure("stored inverse rate lookup", base, quote, err)
	}
	if opposite != nil && opposite.Rate != nil && !opposite.Rate.IsZero() {
		return converter.NewRate(*opposite.Rate).Inverse(), nil
	}

	if s.live == nil {
		return nil, nil
	}

	rate, _, err := s.live.GetRate(ctx, base, quote)
	if errors.Is(err, provider.ErrRateNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.failure("live rate lookup", base, quote, err)
	}
	return converter.NewRate(rate), nil
}

func (s *StoreRateSource) failure(step, base, quote string, err error) error {
	s.log.Warnw("Rate source failure", "step", step, "base", base, "quote", quote, "error", err)
	return fmt.Errorf("%w: %s %s/%s: %w", converter.ErrExternalServiceFailure, step, base, quote, err)
}
