// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"currencyconverter/internal/currency"
)

// Config holds the complete application configuration.
type Config struct {
	Server           ServerConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	ExchangeRateHost ExchangeRateHostConfig `mapstructure:"exchangerate_host"`
	Frankfurter      FrankfurterConfig      `mapstructure:"frankfurter"`
	Worker           WorkerConfig
	Cache            CacheConfig
	Conversion       ConversionConfig
	Refresh          RefreshConfig
	Log              LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `mapstructure:"port"`
	ServeSwagger    bool `mapstructure:"serve_swagger"`
	ServeAsynqmon   bool `mapstructure:"serve_asynqmon"`
	ShutdownTimeout int  `mapstructure:"shutdown_timeout_sec"`

	// CORSAllowedOrigins enables CORS for the listed origins; empty disables it.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // Redis instance for Asynq task queue (required).
	CacheAddr string `mapstructure:"cache_addr"` // Redis instance for application cache (required).
}

// ExchangeRateHostConfig holds settings for the exchangerate.host provider.
type ExchangeRateHostConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// FrankfurterConfig holds settings for the frankfurter provider.
type FrankfurterConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// WorkerConfig holds background worker and task queue settings.
type WorkerConfig struct {
	Concurrency      int `mapstructure:"concurrency"`
	MaxRetry         int `mapstructure:"max_retry"`
	TimeoutSec       int `mapstructure:"timeout_sec"`
	CheckIntervalSec int `mapstructure:"check_interval_sec"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	LatestRateTTLSec           int `mapstructure:"latest_rate_ttl_sec"`
	ExchangeProviderRateTTLSec int `mapstructure:"exchange_provider_rate_ttl_sec"`
}

// ConversionConfig controls where the converter looks up rates.
type ConversionConfig struct {
	// LiveFallback queries the providers directly when no stored rate exists.
	LiveFallback bool `mapstructure:"live_fallback"`
}

// RefreshConfig lists the pairs refreshed periodically by the scheduler.
type RefreshConfig struct {
	Pairs       []string `mapstructure:"pairs"`
	IntervalSec int      `mapstructure:"interval_sec"`
}

// LogConfig controls the zap logger built at startup.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn or error
	Format string `mapstructure:"format"` // json or console
}

// defaults apply when neither the config file nor the environment sets a key.
var defaults = map[string]any{
	"server.port":                          8080,
	"server.serve_swagger":                 true,
	"server.serve_asynqmon":                true,
	"server.shutdown_timeout_sec":          10,
	"server.cors_allowed_origins":          []string{"*"},
	"database.host":                        "db",
	"database.port":                        5432,
	"database.user":                        "postgres",
	"database.password":                    "postgres",
	"database.name":                        "converterdb",
	"database.sslmode":                     "disable",
	"database.max_open_conns":              10,
	"database.max_idle_conns":              5,
	"database.conn_max_lifetime_sec":       300,
	"redis.asynq_addr":                     "redis_asynq:6380",
	"redis.cache_addr":                     "redis_cache:6381",
	"exchangerate_host.base_url":           "https://api.exchangerate.host",
	"exchangerate_host.api_key":            "",
	"exchangerate_host.timeout_sec":        5,
	"frankfurter.base_url":                 "https://api.frankfurter.dev/v1",
	"frankfurter.timeout_sec":              5,
	"worker.concurrency":                   1,
	"worker.max_retry":                     3,
	"worker.timeout_sec":                   30,
	"worker.check_interval_sec":            5,
	"cache.latest_rate_ttl_sec":            600,
	"cache.exchange_provider_rate_ttl_sec": 300,
	"conversion.live_fallback":             true,
	"refresh.pairs":                        []string{"EUR/USD", "EUR/CZK", "EUR/GBP"},
	"refresh.interval_sec":                 3600,
	"log.level":                            "info",
	"log.format":                           "json",
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
// Environment variables use the CONVERTER_ prefix, e.g. CONVERTER_SERVER_PORT.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	v.SetEnvPrefix("CONVERTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// A set but empty variable overrides the default, e.g. to turn CORS off.
	v.AllowEmptyEnv(true)

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Config file not found: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.Database.applyPoolDefaults()
	cfg.Database.DSN = cfg.Database.buildDSN()
	return &cfg, nil
}

func (d *DatabaseConfig) applyPoolDefaults() {
	if d.MaxOpenConns <= 0 {
		d.MaxOpenConns = 10
	}
	if d.MaxIdleConns <= 0 {
		d.MaxIdleConns = 5
	}
	if d.ConnMaxLifetimeSec <= 0 {
		d.ConnMaxLifetimeSec = 300
	}
}

// buildDSN renders a pgx connection URL, escaping credentials.
func (d *DatabaseConfig) buildDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// problems accumulates validation failures.
type problems []error

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Errorf(format, args...))
}

func (p *problems) positive(key string, val int) {
	if val <= 0 {
		p.addf("%s must be positive, got %d", key, val)
	}
}

func (p *problems) required(key, val, hint string) {
	if val == "" {
		if hint != "" {
			p.addf("%s is required (set %s)", key, hint)
			return
		}
		p.addf("%s is required", key)
	}
}

// Validate checks that all required configuration fields are set and valid.
// Every problem found is reported, not just the first.
func (c *Config) Validate() error {
	var p problems

	p.positive("server.port", c.Server.Port)
	p.positive("server.shutdown_timeout_sec", c.Server.ShutdownTimeout)

	p.required("database.host", c.Database.Host, "")
	p.positive("database.port", c.Database.Port)
	p.required("database.user", c.Database.User, "")
	p.required("database.name", c.Database.Name, "")

	p.required("redis.asynq_addr", c.Redis.AsynqAddr, "CONVERTER_REDIS_ASYNQ_ADDR")
	p.required("redis.cache_addr", c.Redis.CacheAddr, "CONVERTER_REDIS_CACHE_ADDR")

	p.positive("worker.concurrency", c.Worker.Concurrency)
	if c.Worker.MaxRetry < 0 {
		p.addf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry)
	}
	p.positive("worker.timeout_sec", c.Worker.TimeoutSec)
	p.positive("worker.check_interval_sec", c.Worker.CheckIntervalSec)

	p.positive("cache.latest_rate_ttl_sec", c.Cache.LatestRateTTLSec)
	p.positive("cache.exchange_provider_rate_ttl_sec", c.Cache.ExchangeProviderRateTTLSec)

	if len(c.Refresh.Pairs) > 0 && c.Refresh.IntervalSec <= 0 {
		p.addf("refresh.interval_sec must be positive when refresh.pairs is set, got %d", c.Refresh.IntervalSec)
	}
	for _, pair := range c.Refresh.Pairs {
		if !validPair(pair) {
			p.addf("refresh.pairs: %q is not in BASE/QUOTE format", pair)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		p.addf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		p.addf("log.format must be json or console, got %q", c.Log.Format)
	}

	return errors.Join(p...)
}

// validPair checks the "XXX/YYY" shape of a configured pair.
func validPair(pair string) bool {
	_, _, ok := currency.SplitPair(pair)
	return ok
}
