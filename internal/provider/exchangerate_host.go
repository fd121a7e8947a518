package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

var _ RatesProvider = (*ExchangeRateHostProvider)(nil)

const exchangeRateHostName = "exchangerate.host"

// erHostCodeInvalidCurrency is returned for currency codes the API does not know.
const erHostCodeInvalidCurrency = 202

// ExchangeRateHostProvider fetches live rates from the exchangerate.host API.
type ExchangeRateHostProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewExchangeRateHostProvider creates a new ExchangeRateHostProvider with the given configuration.
func NewExchangeRateHostProvider(baseURL, apiKey string, timeoutSec int) *ExchangeRateHostProvider {
	if baseURL == "" {
		baseURL = "https://api.exchangerate.host"
	}
	return &ExchangeRateHostProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeoutSec),
	}
}

// erHostResponse is the /live payload. Quotes are keyed "BASEQUOTE", e.g. "EURMXN".
type erHostResponse struct {
	Success   bool                       `json:"success"`
	Timestamp int64                      `json:"timestamp"`
	Quotes    map[string]decimal.Decimal `json:"quotes"`
	Error     *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error,omitempty"`
}

func (p *ExchangeRateHostProvider) liveURL(base, quote string) string {
	q := url.Values{
		"access_key": {p.apiKey},
		"source":     {base},
		"currencies": {quote},
	}
	return p.baseURL + "/live?" + q.Encode()
}

// GetRate fetches the exchange rate for the given base/quote currency pair.
func (p *ExchangeRateHostProvider) GetRate(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error) {
	var res erHostResponse
	if err := getJSON(ctx, p.client, exchangeRateHostName, p.liveURL(base, quote), &res); err != nil {
		return decimal.Decimal{}, time.Time{}, err
	}

	if !res.Success {
		if res.Error != nil && res.Error.Code == erHostCodeInvalidCurrency {
			return decimal.Decimal{}, time.Time{}, fmt.Errorf("%w: %s", ErrRateNotFound, res.Error.Info)
		}
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("%s returned success=false for %s/%s", exchangeRateHostName, base, quote)
	}

	rate, ok := res.Quotes[base+quote]
	if !ok {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("%w: no rate for %s%s in response", ErrRateNotFound, base, quote)
	}

	at := time.Now()
	if res.Timestamp > 0 {
		at = time.Unix(res.Timestamp, 0)
	}
	return rate, at.UTC(), nil
}
