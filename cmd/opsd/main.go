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

	httpadapter "github.com/couchcryptid/carwash-ops/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/carwash-ops/internal/adapter/kafka"
	"github.com/couchcryptid/carwash-ops/internal/adapter/openmeteo"
	"github.com/couchcryptid/carwash-ops/internal/config"
	"github.com/couchcryptid/carwash-ops/internal/domain"
	"github.com/couchcryptid/carwash-ops/internal/observability"
	"github.com/couchcryptid/carwash-ops/internal/pipeline"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Live weather is feature-flagged via WEATHER_ENABLED.
	var weather domain.WeatherProvider
	if cfg.WeatherEnabled {
		client := openmeteo.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, metrics, logger)
		weather = openmeteo.NewCachedProvider(client, cfg.WeatherCacheSize, cfg.WeatherCacheTTL, metrics)
		logger.Info("live weather enabled",
			"base_url", cfg.WeatherBaseURL,
			"timeout", cfg.WeatherTimeout,
			"cache_size", cfg.WeatherCacheSize,
			"cache_ttl", cfg.WeatherCacheTTL,
		)
	} else {
		logger.Info("live weather disabled, forecasts use historical averages")
	}

	var (
		publisher pipeline.ReportPublisher
		writer    *kafkaadapter.Writer
	)
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("report publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	}

	p := pipeline.New(pipeline.SettingsFromConfig(cfg), weather, publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, cfg.MaxUploadBytes, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	logger.Info("service started",
		"timezone", cfg.Location.String(),
		"operating_hours", cfg.Hours.String(),
		"staffing_thresholds", cfg.Thresholds.String(),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	p.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
