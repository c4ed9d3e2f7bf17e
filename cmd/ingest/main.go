package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	httpadapter "github.com/tallgrasslabs/weathermate-ingest/internal/adapter/http"
	kafkaadapter "github.com/tallgrasslabs/weathermate-ingest/internal/adapter/kafka"
	"github.com/tallgrasslabs/weathermate-ingest/internal/adapter/station"
	"github.com/tallgrasslabs/weathermate-ingest/internal/config"
	"github.com/tallgrasslabs/weathermate-ingest/internal/domain"
	"github.com/tallgrasslabs/weathermate-ingest/internal/observability"
	"github.com/tallgrasslabs/weathermate-ingest/internal/pipeline"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	source := station.NewClient(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(domain.DefaultCatalog(), cfg.StationID, logger)

	p := pipeline.New(source, transformer, writer, logger, metrics, clockwork.NewRealClock(), cfg.PollInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.StationID, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start poll pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
