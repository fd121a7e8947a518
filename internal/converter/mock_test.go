package converter

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) ExchangeRate(ctx context.Context, source, target Currency) (*Rate, error) {
	args := m.Called(ctx, source, target)
	rate, _ := args.Get(0).(*Rate)
	return rate, args.Error(1)
}
