package api

import (
	"context"

	"currencyconverter/internal/service"
)

// mockRateService implements service.RateServiceInterface for testing.
type mockRateService struct {
	requestUpdateFunc   func(ctx context.Context, pair string) (string, string, error)
	getUpdateResultFunc func(ctx context.Context, updateID string) (*service.RateUpdateResult, error)
	getLatestRateFunc   func(ctx context.Context, base, quote string) (*service.RateUpdateResult, error)
}

func (m *mockRateService) RequestRateUpdate(ctx context.Context, pair string) (string, string, error) {
	return m.requestUpdateFunc(ctx, pair)
}

func (m *mockRateService) GetUpdateResult(ctx context.Context, updateID string) (*service.RateUpdateResult, error) {
	return m.getUpdateResultFunc(ctx, updateID)
}

func (m *mockRateService) GetLatestRate(ctx context.Context, base, quote string) (*service.RateUpdateResult, error) {
	return m.getLatestRateFunc(ctx, base, quote)
}

func (m *mockRateService) ProcessUpdate(_ context.Context, _, _, _ string) error {
	return nil // Not used in handler tests
}

// mockConversionService implements service.ConversionServiceInterface for testing.
type mockConversionService struct {
	convertFunc func(ctx context.Context, from, to, amount string) (*service.ConversionResult, error)
}

func (m *mockConversionService) Convert(ctx context.Context, from, to, amount string) (*service.ConversionResult, error) {
	return m.convertFunc(ctx, from, to, amount)
}
