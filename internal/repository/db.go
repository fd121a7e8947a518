// Package repository implements data access for exchange-rate updates.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"currencyconverter/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver registration
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// NewPostgresDB opens a connection pool and waits until Postgres answers.
// The ping is retried with linear backoff so the service tolerates a database
// that is still starting; ctx bounds the whole wait.
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSec) * time.Second)

	if err := pingWithRetry(ctx, db, connectAttempts, connectBackoff); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return db, nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, attempts int, backoff time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i) * backoff):
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}
