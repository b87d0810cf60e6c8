package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/geocode-lookup-service/internal/adapter/http"
	"github.com/couchcryptid/geocode-lookup-service/internal/adapter/googlemaps"
	kafkaadapter "github.com/couchcryptid/geocode-lookup-service/internal/adapter/kafka"
	"github.com/couchcryptid/geocode-lookup-service/internal/config"
	"github.com/couchcryptid/geocode-lookup-service/internal/observability"
	"github.com/couchcryptid/geocode-lookup-service/internal/pipeline"
	"github.com/joho/godotenv"
)

// alwaysReady is the readiness check when the batch pipeline is disabled.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	transport := googlemaps.NewHTTPTransport(cfg.GoogleTimeout)
	client := googlemaps.NewClient(transport, metrics, logger)
	defaults := httpadapter.Defaults{
		Geocode:      cfg.GeocodeDefaults(),
		Autocomplete: cfg.AutocompleteDefaults(),
	}
	logger.Info("google maps client ready",
		"protocol", cfg.GoogleProtocol,
		"language", cfg.GoogleLanguage,
		"signed", defaults.Geocode.Signed(),
		"autocomplete_key_set", cfg.GooglePlacesKey != "",
		"timeout", cfg.GoogleTimeout,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready httpadapter.ReadinessChecker = alwaysReady{}
	var closers []func() error

	if cfg.KafkaEnabled {
		reader := kafkaadapter.NewReader(cfg, logger)
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, reader.Close, writer.Close)

		transformer := pipeline.NewTransformer(client, defaults.Geocode, defaults.Autocomplete, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = p
		metrics.PipelineEnabled.Set(1)

		// Start batch pipeline.
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, client, defaults, ready, logger)

	// Start HTTP server.
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
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
