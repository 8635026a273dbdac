package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kroma-labs/sqlcommenter-go/example/internal/api"
	"github.com/kroma-labs/sqlcommenter-go/example/internal/config"
	"github.com/kroma-labs/sqlcommenter-go/example/internal/database"
	"github.com/kroma-labs/sqlcommenter-go/example/internal/telemetry"
	"github.com/kroma-labs/sqlcommenter-go/httpserver"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", config.ServiceName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to setup telemetry")
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	db, err := database.New(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.CreateTable(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to create table")
	}

	// Statements issued while serving a request are tagged with its
	// traceparent, request_id and route, e.g.
	// SELECT ... /*traceparent=00-... framework=sqlcommenter-go application=sqlcommenter-example
	// request_id=... route=%2Fusers%2F%7Bid%7D file=internal%2Fdatabase%2Fusers.go*/
	r := chi.NewRouter()
	r.Use(httpserver.DefaultMiddleware(httpserver.WithDefaultLogger(logger)))
	api.New(db, logger).Routes(r)

	servers := []*http.Server{
		{Addr: config.HTTPAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second},
		{Addr: config.MetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second},
	}
	for _, srv := range servers {
		go func() {
			logger.Info().Str("addr", srv.Addr).Msg("server started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal().Err(err).Str("addr", srv.Addr).Msg("server failed")
			}
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("addr", srv.Addr).Msg("server shutdown failed")
		}
	}
}
