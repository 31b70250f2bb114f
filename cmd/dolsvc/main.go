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

	"github.com/claimsight/dol-evidence/internal/adapter/geocode"
	"github.com/claimsight/dol-evidence/internal/adapter/httpapi"
	kafkaadapter "github.com/claimsight/dol-evidence/internal/adapter/kafka"
	"github.com/claimsight/dol-evidence/internal/adapter/sqlite"
	"github.com/claimsight/dol-evidence/internal/adapter/weather"
	"github.com/claimsight/dol-evidence/internal/config"
	"github.com/claimsight/dol-evidence/internal/observability"
	"github.com/claimsight/dol-evidence/internal/verify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	geocoderClient := geocode.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderToken, cfg.GeocoderTimeout, logger)
	geocoder := geocode.NewCachedGeocoder(geocoderClient, cfg.GeocoderCacheSize, metrics)

	weatherClient := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, logger)

	store, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open record store", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}

	// Audit publishing is feature-flagged via KAFKA_ENABLED.
	var audit verify.AuditPublisher
	var auditWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		auditWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaAuditTopic, logger)
		audit = auditWriter
		logger.Info("kafka audit trail enabled", "topic", cfg.KafkaAuditTopic)
	} else {
		logger.Info("kafka audit trail disabled")
	}

	verifier := verify.New(
		verify.Dependencies{
			Geocoder:     geocoder,
			Stations:     weatherClient,
			Observations: weatherClient,
			Points:       weatherClient,
			Store:        store,
			Audit:        audit,
		},
		verify.Options{
			TopN:             cfg.TopN,
			MinWindMPH:       cfg.MinWindMPH,
			MaxDistanceMiles: cfg.MaxHailDistanceMiles,
			FetchConcurrency: cfg.FetchConcurrency,
		},
		logger,
		metrics,
	)

	srv := httpapi.NewServer(cfg.HTTPAddr, verifier, store, logger)

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
	if auditWriter != nil {
		if err := auditWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("record store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
