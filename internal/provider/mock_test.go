package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockRatesProvider is a testify mock of RatesProvider.
type MockRatesProvider struct {
	mock.Mock
}

func (m *MockRatesProvider) GetRate(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error) {
	args := m.Called(ctx, base, quote)
	rate, _ := args.Get(0).(decimal.Decimal)
	at, _ := args.Get(1).(time.Time)
	return rate, at, args.Error(2)
}
