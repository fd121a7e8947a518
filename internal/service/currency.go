package service

import (
	"errors"
	"strings"

	"currencyconverter/internal/converter"
	"currencyconverter/internal/currency"
)

var (
	// ErrInvalidPairFormat indicates the currency pair format is invalid.
	ErrInvalidPairFormat = errors.New("invalid currency code format")
	// ErrInvalidCurrencyCode indicates a single currency code is malformed.
	ErrInvalidCurrencyCode = errors.New("invalid currency code")
	// ErrInvalidAmount indicates the amount is not a decimal number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidUpdateID indicates the update ID format is invalid.
	ErrInvalidUpdateID = errors.New("invalid update_id")
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")
	// ErrInternal indicates an internal server error.
	ErrInternal = errors.New("internal error")
	// ErrInternalQueue indicates the update task could not be queued.
	ErrInternalQueue = errors.New("internal queue error")
)

// IsValidCurrencyCode reports whether code is three ASCII letters, in either case.
func IsValidCurrencyCode(code string) bool {
	return currency.ValidCode(code)
}

// ParsePair splits "BASE/QUOTE" and returns both codes upper-cased.
func ParsePair(pair string) (base, quote string, err error) {
	base, quote, ok := currency.SplitPair(pair)
	if !ok {
		return "", "", ErrInvalidPairFormat
	}
	return strings.ToUpper(base), strings.ToUpper(quote), nil
}

func normalizePair(base, quote string) (string, string, error) {
	if !IsValidCurrencyCode(base) || !IsValidCurrencyCode(quote) {
		return "", "", ErrInvalidPairFormat
	}
	return strings.ToUpper(base), strings.ToUpper(quote), nil
}

// parseCurrency upper-cases a currency code. Blank input yields the absent
// Currency so the converter reports it as a missing argument.
func parseCurrency(code string) (converter.Currency, error) {
	code = strings.TrimSpace(code)
	switch {
	case code == "":
		return "", nil
	case !IsValidCurrencyCode(code):
		return "", ErrInvalidCurrencyCode
	}
	return converter.Currency(strings.ToUpper(code)), nil
}
