package testkit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// endpoint is a running (or externally provided) backing service.
// ctr is nil for external endpoints.
type endpoint struct {
	ctr  testcontainers.Container
	addr string
}

func (e *endpoint) terminate(ctx context.Context) error {
	if e == nil || e.ctr == nil {
		return nil
	}
	return e.ctr.Terminate(ctx)
}

// startPostgres returns a DSN for an empty database.
func startPostgres(ctx context.Context, cfg *Config) (*endpoint, error) {
	if cfg.PGDSN != "" {
		return &endpoint{addr: cfg.PGDSN}, nil
	}

	ctr, err := postgres.Run(ctx,
		cfg.PGImage,
		postgres.WithDatabase(randomDBName()),
		postgres.WithUsername("converter"),
		postgres.WithPassword("converter"),
		testcontainers.WithWaitStrategyAndDeadline(cfg.StartupTimeout,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}
	return &endpoint{ctr: ctr, addr: dsn}, nil
}

// startRedis returns a host:port address, the form go-redis and asynq expect.
func startRedis(ctx context.Context, cfg *Config) (*endpoint, error) {
	if cfg.RedisAddr != "" {
		return &endpoint{addr: cfg.RedisAddr}, nil
	}

	ctr, err := tcredis.Run(ctx, cfg.RedisImage)
	if err != nil {
		return nil, fmt.Errorf("start redis container: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("redis connection string: %w", err)
	}
	u, err := url.Parse(connStr)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("parse redis connection string %q: %w", connStr, err)
	}
	return &endpoint{ctr: ctr, addr: u.Host}, nil
}

// randomDBName generates a name like "converter_a1b2c3d4".
func randomDBName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "converter_test"
	}
	return "converter_" + hex.EncodeToString(b)
}
