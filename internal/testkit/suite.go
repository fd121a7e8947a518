package testkit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver registration
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"currencyconverter/internal/repository"
)

// Suite owns the integration test infrastructure: a migrated Postgres
// database and a Redis instance, plus open clients for both.
type Suite struct {
	mu    sync.Mutex
	cfg   Config
	pg    *endpoint
	redis *endpoint
	db    *sql.DB
	rdb   *redis.Client
}

var (
	globalSuite *Suite
	globalOnce  sync.Once
)

// Global returns the singleton Suite instance.
func Global() *Suite {
	globalOnce.Do(func() {
		globalSuite = &Suite{cfg: LoadConfig()}
	})
	return globalSuite
}

// Setup starts the containers (or uses external overrides), connects to
// them and applies the schema migrations.
func (s *Suite) Setup(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return errors.New("suite already set up; call Shutdown first")
	}
	defer func() {
		if err != nil {
			s.teardown(ctx)
		}
	}()

	if s.pg, err = startPostgres(ctx, &s.cfg); err != nil {
		return fmt.Errorf("setup postgres: %w", err)
	}
	if s.redis, err = startRedis(ctx, &s.cfg); err != nil {
		return fmt.Errorf("setup redis: %w", err)
	}

	if s.db, err = sql.Open("pgx", s.pg.addr); err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	if err = s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if err = repository.RunMigrations(ctx, s.db, zap.NewNop().Sugar()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	s.rdb = redis.NewClient(&redis.Options{Addr: s.redis.addr})
	if err = s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Shutdown closes the clients and terminates the containers unless
// CONVERTER_TEST_KEEP_CONTAINERS is set.
func (s *Suite) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown(ctx)
}

func (s *Suite) teardown(ctx context.Context) {
	if s.rdb != nil {
		_ = s.rdb.Close()
		s.rdb = nil
	}
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}

	if s.cfg.KeepContainers {
		if s.pg != nil {
			fmt.Println("testkit: keeping containers; Postgres DSN:", s.pg.addr)
		}
		if s.redis != nil {
			fmt.Println("testkit: keeping containers; Redis addr:", s.redis.addr)
		}
	} else {
		if err := s.redis.terminate(ctx); err != nil {
			fmt.Println("warning: failed to terminate redis container:", err)
		}
		if err := s.pg.terminate(ctx); err != nil {
			fmt.Println("warning: failed to terminate postgres container:", err)
		}
	}
	s.pg, s.redis = nil, nil
}

// DB returns the migrated test database.
func (s *Suite) DB() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Redis returns the client for the test Redis instance.
func (s *Suite) Redis() *redis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rdb
}

// RedisAddr returns the host:port address for the test Redis instance.
func (s *Suite) RedisAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redis == nil {
		return ""
	}
	return s.redis.addr
}

// Reset empties the rate_updates table and the Redis database.
func (s *Suite) Reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.DB().ExecContext(ctx, "TRUNCATE TABLE rate_updates"); err != nil {
		t.Fatalf("failed to truncate rate_updates: %v", err)
	}
	if err := s.Redis().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

// Run sets up the suite, executes tests, then shuts down. Intended for use in TestMain.
func (s *Suite) Run(m *testing.M) {
	ctx := context.Background()

	if err := s.Setup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "integration test setup failed: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	s.Shutdown(ctx)
	os.Exit(code)
}

// Run is a package-level convenience that delegates to Global().Run.
func Run(m *testing.M) {
	Global().Run(m)
}
