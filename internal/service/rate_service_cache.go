package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"currencyconverter/internal/repository"
)

const (
	latestKeyPrefix  = "latest:"
	latestFieldRate  = "rate"
	latestFieldStamp = "updated_at"
)

// latestCacheKey hash-tags the pair so both fields land on one cluster slot.
func latestCacheKey(base, quote string) string {
	return latestKeyPrefix + "{" + base + ":" + quote + "}"
}

// latestRateCache keeps the newest SUCCESS rate per pair in a Redis hash.
// A nil client disables it. Redis failures degrade to a miss.
type latestRateCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.SugaredLogger
}

func (c latestRateCache) get(ctx context.Context, base, quote string) (*repository.RateUpdate, bool) {
	if c.rdb == nil {
		return nil, false
	}

	fields, err := c.rdb.HGetAll(ctx, latestCacheKey(base, quote)).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}

	rate, err := decimal.NewFromString(fields[latestFieldRate])
	if err != nil {
		return nil, false
	}
	stamp, err := time.Parse(time.RFC3339, fields[latestFieldStamp])
	if err != nil {
		return nil, false
	}

	return &repository.RateUpdate{
		Base:      base,
		Quote:     quote,
		Status:    repository.StatusSuccess,
		Rate:      &rate,
		UpdatedAt: &stamp,
	}, true
}

func (c latestRateCache) put(ctx context.Context, base, quote string, rate decimal.Decimal, at time.Time) {
	if c.rdb == nil {
		return
	}

	key := latestCacheKey(base, quote)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, latestFieldRate, rate.String(), latestFieldStamp, at.UTC().Format(time.RFC3339))
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		c.log.Warnw("Failed to update latest rate cache", "key", key, "error", err)
	}
}

// putUpdate caches a stored SUCCESS row. Rows without a rate are ignored.
func (c latestRateCache) putUpdate(ctx context.Context, u *repository.RateUpdate) {
	if u == nil || u.Rate == nil || u.UpdatedAt == nil {
		return
	}
	c.put(ctx, u.Base, u.Quote, *u.Rate, *u.UpdatedAt)
}
