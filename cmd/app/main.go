package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	_ "currencyconverter/internal/api/docs"
	"currencyconverter/internal/config"
)

// @title Currency Converter API
// @version 1.0
// @description Converts monetary amounts between currencies using exchange rates fetched asynchronously from public providers.
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	sugar := zapLogger.Sugar()

	sugar.Infow("Starting currency converter",
		"port", cfg.Server.Port,
		"live_fallback", cfg.Conversion.LiveFallback,
		"refresh_pairs", cfg.Refresh.Pairs,
	)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("Failed to initialize app", "error", err)
	}

	if err := app.Run(ctx); err != nil {
		sugar.Fatalw("Application error", "error", err)
	}
}
