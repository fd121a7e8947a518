package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/redis/go-redis/v9"

	"currencyconverter/internal/api"
	"currencyconverter/internal/api/middleware"
	"currencyconverter/internal/service"
)

const monitoringPath = "/monitoring"

func (app *App) initHTTP(rateService service.RateServiceInterface, conversionService service.ConversionServiceInterface) {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(app.logger))
	r.Use(chimiddleware.Recoverer)
	if len(app.cfg.Server.CORSAllowedOrigins) > 0 {
		r.Use(newCORS(app.cfg.Server.CORSAllowedOrigins))
	}

	r.Get("/convert", api.HandleConvert(conversionService))
	r.Post("/rates/update", api.HandleRequestUpdate(rateService))
	r.Get("/rates/latest", api.HandleGetLatestRate(rateService))
	r.Get("/rates/{update_id}", api.HandleGetUpdateByID(rateService))
	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(
		api.Dependency{Name: "DB", Ping: app.db.PingContext},
		api.Dependency{Name: "Cache", Ping: redisPing(app.rdbCache)},
		api.Dependency{Name: "Asynq Redis", Ping: redisPing(app.rdbAsynq)},
	))

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	if app.cfg.Server.ServeAsynqmon {
		mon := asynqmon.New(asynqmon.Options{
			RootPath:     monitoringPath,
			RedisConnOpt: asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr},
		})
		r.Handle(mon.RootPath()+"/*", mon)
	}

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// newCORS allows browser clients on origins to call the read and update endpoints.
func newCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID},
		MaxAge:         300,
	})
}

func redisPing(c *redis.Client) func(context.Context) error {
	if c == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return c.Ping(ctx).Err()
	}
}
