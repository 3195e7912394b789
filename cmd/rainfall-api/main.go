package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/rainfall-explorer/internal/adapter/environmentagency"
	httpadapter "github.com/couchcryptid/rainfall-explorer/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/rainfall-explorer/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-explorer/internal/adapter/mapbox"
	"github.com/couchcryptid/rainfall-explorer/internal/config"
	"github.com/couchcryptid/rainfall-explorer/internal/observability"
	"github.com/couchcryptid/rainfall-explorer/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := environmentagency.NewClient(logger, metrics)
	registry := environmentagency.NewStationRegistry(client, cfg.StationsURL, cfg.StationsLimit, cfg.StationsTimeout)
	readings := environmentagency.NewReadingsClient(client, cfg.ReadingsURL, cfg.ReadingsLimit, cfg.ReadingsTimeout)

	var opts []pipeline.Option

	// Place names are feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		opts = append(opts, pipeline.WithGeocoder(mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)))
		logger.Info("mapbox geocoding enabled", "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher *kafkaadapter.Publisher
	if cfg.PublishEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		opts = append(opts, pipeline.WithPublisher(publisher))
		logger.Info("publishing results to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultsTopic)
	}

	p := pipeline.New(registry, readings, pipeline.FetchConfig{
		Workers:      cfg.ReadingsWorkers,
		MaxRetries:   cfg.ReadingsMaxRetries,
		RetryBackoff: cfg.ReadingsRetryBackoff,
	}, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, pipeline.NewSessions(p), p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
