// Package testkit starts the Postgres and Redis instances used by integration tests.
package testkit

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const envPrefix = "CONVERTER_TEST_"

// Config holds environment-driven configuration for integration test infrastructure.
// Every variable is read with the CONVERTER_TEST_ prefix, e.g. CONVERTER_TEST_PG_DSN.
type Config struct {
	PGImage        string
	RedisImage     string
	PGDSN          string        // If set, no Postgres container is started.
	RedisAddr      string        // If set, no Redis container is started.
	StartupTimeout time.Duration // Max time to wait for containers to become ready.
	KeepContainers bool          // If true, containers outlive the test binary.
}

// LoadConfig reads test infrastructure settings from environment variables.
func LoadConfig() Config {
	return Config{
		PGImage:        lookup("PG_IMAGE", "postgres:18.1-alpine"),
		RedisImage:     lookup("REDIS_IMAGE", "redis:8.4.0-alpine"),
		PGDSN:          lookup("PG_DSN", ""),
		RedisAddr:      lookup("REDIS_ADDR", ""),
		StartupTimeout: lookupDuration("STARTUP_TIMEOUT", 90*time.Second),
		KeepContainers: lookupBool("KEEP_CONTAINERS", false),
	}
}

func lookup(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		return v
	}
	return def
}

// lookupDuration accepts a Go duration ("45s") or a plain number of seconds.
func lookupDuration(key string, def time.Duration) time.Duration {
	v := lookup(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	warnInvalid(key, v, def)
	return def
}

func lookupBool(key string, def bool) bool {
	v := lookup(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		warnInvalid(key, v, def)
		return def
	}
	return b
}

func warnInvalid(key, value string, def any) {
	fmt.Fprintf(os.Stderr, "testkit: ignoring %s%s=%q, using %v\n", envPrefix, key, value, def)
}
