package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	fieldRate      = "rate"
	fieldFetchedAt = "updated_at"
)

// CachedProvider serves rates from a Redis hash per provider and pair, falling
// back to the wrapped provider on a miss. Only successful lookups are stored;
// ErrRateNotFound and transport failures always reach the provider.
type CachedProvider struct {
	next  RatesProvider
	cache *redis.Client
	ttl   time.Duration
	name  string
}

// NewCachedRatesProvider wraps next with a cache namespaced by name. A nil cache disables caching.
func NewCachedRatesProvider(next RatesProvider, cache *redis.Client, ttl time.Duration, name string) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl, name: name}
}

func (p *CachedProvider) key(base, quote string) string {
	return fmt.Sprintf("provider_cache:%s:{%s:%s}", p.name, base, quote)
}

// GetRate implements RatesProvider.
func (p *CachedProvider) GetRate(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error) {
	if p.cache == nil {
		return p.next.GetRate(ctx, base, quote)
	}

	key := p.key(base, quote)
	if rate, at, ok := p.load(ctx, key); ok {
		return rate, at, nil
	}

	rate, at, err := p.next.GetRate(ctx, base, quote)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, err
	}
	p.store(ctx, key, rate, at)
	return rate, at, nil
}

// load reports a miss for absent, partial or unparsable entries.
func (p *CachedProvider) load(ctx context.Context, key string) (decimal.Decimal, time.Time, bool) {
	vals, err := p.cache.HMGet(ctx, key, fieldRate, fieldFetchedAt).Result()
	if err != nil || len(vals) != 2 {
		return decimal.Decimal{}, time.Time{}, false
	}
	rateStr, ok1 := vals[0].(string)
	atStr, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return decimal.Decimal{}, time.Time{}, false
	}

	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339, atStr)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, false
	}
	return rate, at, true
}

// store is best effort; a failed write only costs a later miss.
func (p *CachedProvider) store(ctx context.Context, key string, rate decimal.Decimal, at time.Time) {
	pipe := p.cache.TxPipeline()
	pipe.HSet(ctx, key, fieldRate, rate.String(), fieldFetchedAt, at.Format(time.RFC3339))
	pipe.Expire(ctx, key, p.ttl)
	_, _ = pipe.Exec(ctx)
}

var _ RatesProvider = (*CachedProvider)(nil)
