package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"currencyconverter/internal/config"
	"currencyconverter/internal/repository"
)

// Mock repository
type mockRateRepo struct {
	createUpdateFunc     func(ctx context.Context, base, quote, id string) (string, error)
	markRunningFunc      func(ctx context.Context, id string) error
	markSuccessFunc      func(ctx context.Context, id string, rate decimal.Decimal) error
	markFailedFunc       func(ctx context.Context, id, errorMsg string) error
	getByIDFunc          func(ctx context.Context, id string) (*repository.RateUpdate, error)
	getLatestSuccessFunc func(ctx context.Context, base, quote string) (*repository.RateUpdate, error)
}

func (m *mockRateRepo) CreateUpdate(ctx context.Context, base, quote, id string) (string, error) {
	return m.createUpdateFunc(ctx, base, quote, id)
}

func (m *mockRateRepo) MarkRunning(ctx context.Context, id string) error {
	return m.markRunningFunc(ctx, id)
}

func (m *mockRateRepo) MarkSuccess(ctx context.Context, id string, rate decimal.Decimal) error {
	return m.markSuccessFunc(ctx, id, rate)
}

func (m *mockRateRepo) MarkFailed(ctx context.Context, id, errorMsg string) error {
	return m.markFailedFunc(ctx, id, errorMsg)
}

func (m *mockRateRepo) GetByID(ctx context.Context, id string) (*repository.RateUpdate, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRateRepo) GetLatestSuccess(ctx context.Context, base, quote string) (*repository.RateUpdate, error) {
	return m.getLatestSuccessFunc(ctx, base, quote)
}

// Mock provider
type mockRatesProvider struct {
	getRateFunc func(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error)
}

func (m *mockRatesProvider) GetRate(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error) {
	return m.getRateFunc(ctx, base, quote)
}

// Mock enqueuer
type mockEnqueuer struct {
	payloads []UpdateRatePayload
	err      error
}

func (m *mockEnqueuer) EnqueueUpdateTask(_ context.Context, payload UpdateRatePayload) error {
	m.payloads = append(m.payloads, payload)
	return m.err
}

var testCacheCfg = config.CacheConfig{
	LatestRateTTLSec:           3600,
	ExchangeProviderRateTTLSec: 300,
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func successUpdate(base, quote, rate string) *repository.RateUpdate {
	d := decimal.RequireFromString(rate)
	ts := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	return &repository.RateUpdate{
		ID:        "11111111-1111-1111-1111-111111111111",
		Base:      base,
		Quote:     quote,
		Rate:      &d,
		Status:    repository.StatusSuccess,
		UpdatedAt: &ts,
	}
}

func TestIsValidCurrencyCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"USD", true},
		{"EUR", true},
		{"CZK", true},
		{"usd", true},   // should accept lowercase and convert
		{"US", false},   // too short
		{"USDA", false}, // too long
		{"US1", false},  // contains number
		{"US$", false},  // contains special char
		{"", false},     // empty
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			result := IsValidCurrencyCode(tc.code)
			if result != tc.valid {
				t.Errorf("IsValidCurrencyCode(%q) = %v, want %v", tc.code, result, tc.valid)
			}
		})
	}
}

func TestParsePair(t *testing.T) {
	tests := []struct {
		pair      string
		wantBase  string
		wantQuote string
		wantErr   bool
	}{
		{"EUR/CZK", "EUR", "CZK", false},
		{"eur/czk", "EUR", "CZK", false},
		{"EURCZK", "", "", true},
		{"EUR/CZK/USD", "", "", true},
		{"EU[/CZK", "", "", true},
		{"/CZK", "", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.pair, func(t *testing.T) {
			base, quote, err := ParsePair(tc.pair)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidPairFormat) {
					t.Fatalf("ParsePair(%q) error = %v, want ErrInvalidPairFormat", tc.pair, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePair(%q) unexpected error: %v", tc.pair, err)
			}
			if base != tc.wantBase || quote != tc.wantQuote {
				t.Errorf("ParsePair(%q) = %s/%s, want %s/%s", tc.pair, base, quote, tc.wantBase, tc.wantQuote)
			}
		})
	}
}

func TestRequestRateUpdate_Validation(t *testing.T) {
	sugar := zap.NewNop().Sugar()

	tests := []string{
		"INVALID",
		"EU/MXN",   // too short
		"EURO/MXN", // too long
		"EUR/MX",   // quote too short
		"EUR/MXNA", // quote too long
		"123/MXN",  // contains numbers
		"EUR/12N",  // quote contains numbers
		"EUR-MXN",  // wrong separator
		"",         // empty
	}

	for _, pair := range tests {
		t.Run(pair, func(t *testing.T) {
			repo := &mockRateRepo{}
			svc := NewRateService(repo, nil, nil, nil, sugar, testCacheCfg)

			_, _, err := svc.RequestRateUpdate(context.Background(), pair)
			if !errors.Is(err, ErrInvalidPairFormat) {
				t.Errorf("Expected ErrInvalidPairFormat for %q, got %v", pair, err)
			}
		})
	}
}

func TestRequestRateUpdate_Enqueues(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	repo := &mockRateRepo{
		createUpdateFunc: func(ctx context.Context, base, quote, id string) (string, error) {
			if base != "EUR" || quote != "CZK" {
				t.Errorf("Expected EUR/CZK, got %s/%s", base, quote)
			}
			return id, nil
		},
	}
	enq := &mockEnqueuer{}
	svc := NewRateService(repo, nil, enq, nil, sugar, testCacheCfg)

	id, status, err := svc.RequestRateUpdate(context.Background(), "eur/czk")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if status != "PENDING" {
		t.Errorf("Expected PENDING, got %s", status)
	}
	if len(enq.payloads) != 1 || enq.payloads[0].UpdateID != id {
		t.Fatalf("Expected one task for %s, got %+v", id, enq.payloads)
	}
}

func TestRequestRateUpdate_Dedup(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	existing := "22222222-2222-2222-2222-222222222222"
	repo := &mockRateRepo{
		createUpdateFunc: func(ctx context.Context, base, quote, id string) (string, error) {
			return existing, nil
		},
	}
	enq := &mockEnqueuer{}
	svc := NewRateService(repo, nil, enq, nil, sugar, testCacheCfg)

	id, _, err := svc.RequestRateUpdate(context.Background(), "EUR/CZK")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if id != existing {
		t.Errorf("Expected existing id %s, got %s", existing, id)
	}
	if len(enq.payloads) != 0 {
		t.Errorf("Expected no task for an in-flight update, got %d", len(enq.payloads))
	}
}

func TestRequestRateUpdate_EnqueueFailure(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	var failedWith string
	repo := &mockRateRepo{
		createUpdateFunc: func(ctx context.Context, base, quote, id string) (string, error) {
			return id, nil
		},
		markFailedFunc: func(ctx context.Context, id, errorMsg string) error {
			failedWith = errorMsg
			return nil
		},
	}
	svc := NewRateService(repo, nil, &mockEnqueuer{err: errors.New("redis down")}, nil, sugar, testCacheCfg)

	_, _, err := svc.RequestRateUpdate(context.Background(), "EUR/CZK")
	if !errors.Is(err, ErrInternalQueue) {
		t.Fatalf("Expected ErrInternalQueue, got %v", err)
	}
	if failedWith != "enqueue error" {
		t.Errorf("Expected record marked FAILED with 'enqueue error', got %q", failedWith)
	}
}

func TestGetLatestRate_Validation(t *testing.T) {
	sugar := zap.NewNop().Sugar()

	tests := []struct {
		base  string
		quote string
	}{
		{"EU", "MXN"},   // too short
		{"EURO", "MXN"}, // too long
		{"EUR", "MX"},   // quote too short
		{"123", "MXN"},  // contains numbers
		{"", "MXN"},     // empty base
		{"EUR", ""},     // empty quote
	}

	for _, tc := range tests {
		t.Run(tc.base+"/"+tc.quote, func(t *testing.T) {
			svc := NewRateService(&mockRateRepo{}, nil, nil, nil, sugar, testCacheCfg)

			_, err := svc.GetLatestRate(context.Background(), tc.base, tc.quote)
			if !errors.Is(err, ErrInvalidPairFormat) {
				t.Errorf("Expected ErrInvalidPairFormat for %s/%s, got %v", tc.base, tc.quote, err)
			}
		})
	}
}

func TestGetLatestRate_CachesDBResult(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	_, rdb := newTestRedis(t)
	calls := 0
	repo := &mockRateRepo{
		getLatestSuccessFunc: func(ctx context.Context, base, quote string) (*repository.RateUpdate, error) {
			calls++
			return successUpdate(base, quote, "26.25"), nil
		},
	}
	svc := NewRateService(repo, nil, nil, rdb, sugar, testCacheCfg)

	for i := 0; i < 2; i++ {
		res, err := svc.GetLatestRate(context.Background(), "eur", "czk")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if res.Rate == nil || *res.Rate != "26.25" {
			t.Fatalf("Expected rate 26.25, got %v", res.Rate)
		}
		if res.Base != "EUR" || res.Quote != "CZK" {
			t.Errorf("Expected EUR/CZK, got %s/%s", res.Base, res.Quote)
		}
	}
	if calls != 1 {
		t.Errorf("Expected one DB call, got %d", calls)
	}
}

func TestGetLatestRate_NotFound(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	repo := &mockRateRepo{
		getLatestSuccessFunc: func(ctx context.Context, base, quote string) (*repository.RateUpdate, error) {
			return nil, nil
		},
	}
	svc := NewRateService(repo, nil, nil, nil, sugar, testCacheCfg)

	_, err := svc.GetLatestRate(context.Background(), "USD", "NOK")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetUpdateResult_InvalidUUID(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	svc := NewRateService(nil, nil, nil, nil, sugar, testCacheCfg)

	_, err := svc.GetUpdateResult(context.Background(), "not-a-uuid")
	if !errors.Is(err, ErrInvalidUpdateID) {
		t.Errorf("Expected ErrInvalidUpdateID, got %v", err)
	}
}

func TestGetUpdateResult_Failed(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	msg := "provider timeout"
	repo := &mockRateRepo{
		getByIDFunc: func(ctx context.Context, id string) (*repository.RateUpdate, error) {
			return &repository.RateUpdate{ID: id, Base: "EUR", Quote: "CZK", Status: repository.StatusFailed, ErrorMsg: &msg}, nil
		},
	}
	svc := NewRateService(repo, nil, nil, nil, sugar, testCacheCfg)

	res, err := svc.GetUpdateResult(context.Background(), "33333333-3333-3333-3333-333333333333")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Status != "FAILED" || res.ErrorMsg == nil || *res.ErrorMsg != msg {
		t.Errorf("Expected FAILED with %q, got %+v", msg, res)
	}
	if res.Rate != nil {
		t.Error("Expected no rate for FAILED update")
	}
}

func TestProcessUpdate_Success(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	mr, rdb := newTestRedis(t)

	repo := &mockRateRepo{
		markRunningFunc: func(ctx context.Context, id string) error {
			return nil
		},
		markSuccessFunc: func(ctx context.Context, id string, rate decimal.Decimal) error {
			if rate.String() != "26.25" {
				t.Errorf("Expected rate 26.25, got %s", rate)
			}
			return nil
		},
	}

	prov := &mockRatesProvider{
		getRateFunc: func(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error) {
			return decimal.RequireFromString("26.25"), time.Now(), nil
		},
	}

	svc := NewRateService(repo, prov, nil, rdb, sugar, testCacheCfg)

	err := svc.ProcessUpdate(context.Background(), "test-id", "EUR", "CZK")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if got := mr.HGet(latestCacheKey("EUR", "CZK"), "rate"); got != "26.25" {
		t.Errorf("Expected cached rate 26.25, got %q", got)
	}
}

func TestProcessUpdate_Failure(t *testing.T) {
	sugar := zap.NewNop().Sugar()

	repo := &mockRateRepo{
		markRunningFunc: func(ctx context.Context, id string) error {
			return nil
		},
		markFailedFunc: func(ctx context.Context, id, errorMsg string) error {
			if errorMsg != "provider error" {
				t.Errorf("Expected error message 'provider error', got %q", errorMsg)
			}
			return nil
		},
	}

	prov := &mockRatesProvider{
		getRateFunc: func(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error) {
			return decimal.Decimal{}, time.Time{}, errors.New("provider error")
		},
	}

	svc := NewRateService(repo, prov, nil, nil, sugar, testCacheCfg)

	err := svc.ProcessUpdate(context.Background(), "test-id", "EUR", "CZK")
	if err == nil {
		t.Error("Expected error, got nil")
	}
}
