//go:build integration

// Package integration runs the repository and services against real Postgres and Redis.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"currencyconverter/internal/repository"
	"currencyconverter/internal/testkit"
)

func newRepo() repository.RateUpdateRepository {
	return repository.NewPostgresRateUpdateRepository(testkit.Global().DB())
}

// resetTestData empties the rate_updates table and the Redis database.
func resetTestData(t *testing.T) {
	t.Helper()
	testkit.Global().Reset(t)
}

// testContext returns a context with a 30-second deadline tied to the test's cleanup.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// insertSuccessRecord creates an update and moves it through
// PENDING -> RUNNING -> SUCCESS with the given rate.
func insertSuccessRecord(t *testing.T, base, quote, rate string) string {
	t.Helper()
	ctx := testContext(t)
	repo := newRepo()

	id := uuid.New().String()
	if _, err := repo.CreateUpdate(ctx, base, quote, id); err != nil {
		t.Fatalf("CreateUpdate: %v", err)
	}
	if err := repo.MarkRunning(ctx, id); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := repo.MarkSuccess(ctx, id, decimal.RequireFromString(rate)); err != nil {
		t.Fatalf("MarkSuccess: %v", err)
	}
	return id
}

// truncateUpdates empties rate_updates but keeps Redis, so later reads must come from cache.
func truncateUpdates(t *testing.T) {
	t.Helper()
	if _, err := testkit.Global().DB().ExecContext(testContext(t), "TRUNCATE TABLE rate_updates"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
