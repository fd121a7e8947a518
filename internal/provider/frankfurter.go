package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

var _ RatesProvider = (*FrankfurterProvider)(nil)

const frankfurterName = "frankfurter"

// FrankfurterProvider fetches ECB reference rates from the Frankfurter API.
// It needs no credentials.
type FrankfurterProvider struct {
	baseURL string
	client  *http.Client
}

// NewFrankfurterProvider creates a new FrankfurterProvider.
func NewFrankfurterProvider(baseURL string, timeoutSec int) *FrankfurterProvider {
	if baseURL == "" {
		baseURL = "https://api.frankfurter.dev/v1"
	}
	return &FrankfurterProvider{
		baseURL: baseURL,
		client:  newHTTPClient(timeoutSec),
	}
}

type frankfurterResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// GetRate returns the quote per one unit of base and the publication date of the rate.
func (p *FrankfurterProvider) GetRate(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error) {
	q := url.Values{"base": {base}, "symbols": {quote}}

	var res frankfurterResponse
	err := getJSON(ctx, p.client, frankfurterName, p.baseURL+"/latest?"+q.Encode(), &res)
	if err != nil {
		// Frankfurter answers 404 for currencies it does not track.
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return decimal.Decimal{}, time.Time{}, fmt.Errorf("%w: frankfurter does not know %s/%s", ErrRateNotFound, base, quote)
		}
		return decimal.Decimal{}, time.Time{}, err
	}

	rate, ok := res.Rates[quote]
	if !ok {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("%w: no rate for %s in frankfurter response", ErrRateNotFound, quote)
	}

	published, err := time.Parse(time.DateOnly, res.Date)
	if err != nil {
		published = time.Now()
	}
	return rate, published.UTC(), nil
}
