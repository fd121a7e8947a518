package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"currencyconverter/internal/converter"
)

// ConversionServiceInterface defines the conversion operation exposed to callers.
type ConversionServiceInterface interface {
	Convert(ctx context.Context, from, to, amount string) (*ConversionResult, error)
}

// Converter is the core conversion operation used by ConversionService.
type Converter interface {
	Convert(ctx context.Context, source, target converter.Currency, amount *decimal.Decimal) (decimal.Decimal, error)
}

// ConversionResult is a completed conversion. Result always has two
// fractional digits.
type ConversionResult struct {
	From   string
	To     string
	Amount string
	Result string
}

// ConversionService parses raw inputs and delegates to the converter.
type ConversionService struct {
	conv Converter
}

// NewConversionService creates a new ConversionService.
func NewConversionService(conv Converter) *ConversionService {
	return &ConversionService{conv: conv}
}

// Convert converts amount from one currency to another.
// Blank arguments are forwarded as absent and rejected by the converter with
// converter.ErrInvalidArgument; malformed ones fail here.
func (s *ConversionService) Convert(ctx context.Context, from, to, amount string) (*ConversionResult, error) {
	source, err := parseCurrency(from)
	if err != nil {
		return nil, err
	}
	target, err := parseCurrency(to)
	if err != nil {
		return nil, err
	}

	amt, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}

	converted, err := s.conv.Convert(ctx, source, target, amt)
	if err != nil {
		return nil, err
	}

	return &ConversionResult{
		From:   source.String(),
		To:     target.String(),
		Amount: amt.String(),
		Result: converted.StringFixed(converter.Scale),
	}, nil
}

// Bounds on parsed amounts. Results are formatted in full, so an amount
// such as 1e10000000 must not get past parsing.
const (
	maxAmountIntegerDigits  = 30
	maxAmountFractionDigits = 30
)

// parseAmount returns nil for blank input so the converter reports the
// missing argument.
func parseAmount(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	exp := int64(d.Exponent())
	if intDigits := int64(d.NumDigits()) + exp; intDigits > maxAmountIntegerDigits {
		return nil, fmt.Errorf("%w: more than %d integer digits", ErrInvalidAmount, maxAmountIntegerDigits)
	}
	if -exp > maxAmountFractionDigits {
		return nil, fmt.Errorf("%w: more than %d fractional digits", ErrInvalidAmount, maxAmountFractionDigits)
	}
	return &d, nil
}
