package converter

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a currency or the amount is missing.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnknownRate matches every *UnknownRateError via errors.Is.
var ErrUnknownRate = errors.New("unknown exchange rate")

// ErrExternalServiceFailure is wrapped by RateSource implementations when the
// backing service (database, cache, remote API) fails.
var ErrExternalServiceFailure = errors.New("external service failure")

// Reasons carried by UnknownRateError.
const (
	ReasonUnknownCurrency = "the currency is unknown"
	ReasonLookupFailed    = "the exchange rate couldn't be retrieved"
)

// UnknownRateError reports that no rate is available for a pair, either
// because the source has none or because the lookup itself failed.
// The source's own error is not wrapped.
type UnknownRateError struct {
	Source Currency
	Target Currency
	Reason string
}

func (e *UnknownRateError) Error() string {
	return fmt.Sprintf("unknown exchange rate %s/%s: %s", e.Source, e.Target, e.Reason)
}

// Is reports whether target is ErrUnknownRate.
func (e *UnknownRateError) Is(target error) bool {
	return target == ErrUnknownRate
}
