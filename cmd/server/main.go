// Package main provides the entry point for the scholarpipe HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/scholarpipe/scholarpipe/internal/config"
	"github.com/scholarpipe/scholarpipe/internal/observability"
	"github.com/scholarpipe/scholarpipe/internal/pdf"
	"github.com/scholarpipe/scholarpipe/internal/pipeline"
	"github.com/scholarpipe/scholarpipe/internal/scholar/serpapi"
	"github.com/scholarpipe/scholarpipe/internal/scoring"
	"github.com/scholarpipe/scholarpipe/internal/scrape"
	httpserver "github.com/scholarpipe/scholarpipe/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("scholarpipe server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	driver := buildDriver(cfg, logger, metrics)

	httpCfg := httpserver.Config{
		Address:     cfg.Server.HTTPAddress(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// A pipeline run downloads PDFs sequentially, so the write
		// timeout has to cover the whole run.
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
	}
	httpSrv := httpserver.NewServer(httpCfg, driver, logger)

	// Channel to collect server errors.
	errCh := make(chan error, 1)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().Str("http_address", httpCfg.Address).Msg("scholarpipe is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down scholarpipe")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("scholarpipe shutdown complete")
	return nil
}

// buildDriver wires the search, scoring, and PDF stages from configuration.
func buildDriver(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) *pipeline.Driver {
	provider := serpapi.NewClient(serpapi.Config{
		BaseURL:   cfg.SerpAPI.BaseURL,
		APIKey:    cfg.SerpAPI.APIKey,
		Timeout:   cfg.SerpAPI.Timeout,
		RateLimit: cfg.SerpAPI.RateLimit,
	}, nil, logger, metrics)

	engine := scoring.NewEngine(cfg.Scoring.Weights)

	locator := pdf.NewLocator(pdf.LocatorConfig{
		Timeout:   cfg.PDF.LocateTimeout,
		UserAgent: cfg.PDF.UserAgent,
	}, logger, metrics)

	downloader := pdf.NewDownloader(pdf.DownloaderConfig{
		Timeout:   cfg.PDF.DownloadTimeout,
		MaxSize:   cfg.PDF.MaxSizeBytes,
		UserAgent: cfg.PDF.UserAgent,
	})

	acquirer := pdf.NewAcquirer(locator, downloader, logger, metrics)

	pages := scrape.NewPageFetcher(scrape.PageFetcherConfig{
		UserAgent: cfg.PDF.UserAgent,
	}, logger)

	return pipeline.NewDriver(
		provider,
		engine,
		acquirer,
		pages,
		pipeline.DriverConfig{
			DownloadDelay: cfg.Pipeline.DownloadDelay,
			DownloadDir:   cfg.PDF.DownloadDir,
		},
		logger,
		metrics,
	)
}
