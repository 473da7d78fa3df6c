// Package main provides a one-shot CLI for the scholar pipeline: search,
// rank, download the top papers, and export the results as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/scholarpipe/scholarpipe/internal/config"
	"github.com/scholarpipe/scholarpipe/internal/observability"
	"github.com/scholarpipe/scholarpipe/internal/pdf"
	"github.com/scholarpipe/scholarpipe/internal/pipeline"
	"github.com/scholarpipe/scholarpipe/internal/scholar/serpapi"
	"github.com/scholarpipe/scholarpipe/internal/scoring"
	"github.com/scholarpipe/scholarpipe/internal/scrape"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		query        = flag.String("query", "", "search query (required)")
		field        = flag.String("field", "", "research field for venue scoring (computer_science, biology, physics, chemistry)")
		numResults   = flag.Int("num-results", 0, "number of papers to gather (default from config)")
		topK         = flag.Int("top-k", -1, "number of top papers to download PDFs for (default from config)")
		downloadDir  = flag.String("download-dir", "", "directory for downloaded PDFs (default from config)")
		exportPath   = flag.String("export", "ranked_papers.json", "path of the JSON export, empty to skip")
		exportTopN   = flag.Int("export-top", 10, "number of papers included in the export")
		fetchContent = flag.Bool("fetch-content", false, "scrape landing-page text for each paper")
	)
	flag.Parse()

	if *query == "" {
		flag.Usage()
		return fmt.Errorf("-query is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.SerpAPI.APIKey == "" {
		return fmt.Errorf("SCHOLARPIPE_SERPAPI_API_KEY is not set")
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "cli").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := buildDriver(cfg, logger)

	req := pipeline.Request{
		Query:        *query,
		Field:        orDefaultString(*field, cfg.Scoring.Field),
		NumResults:   orDefaultInt(*numResults, cfg.Pipeline.NumResults),
		TopK:         cfg.Pipeline.TopK,
		DownloadDir:  *downloadDir,
		FetchContent: *fetchContent || cfg.Pipeline.FetchContent,
	}
	if *topK >= 0 {
		req.TopK = *topK
	}

	result, err := driver.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	logger.Info().
		Str("run_id", result.RunID).
		Int("papers", len(result.Papers)).
		Int("downloaded", len(result.Downloaded)).
		Msg("run complete")

	if *exportPath == "" {
		return nil
	}

	f, err := os.Create(*exportPath)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := pipeline.ExportJSON(f, result.Papers, *exportTopN); err != nil {
		return err
	}
	logger.Info().Str("path", *exportPath).Msg("results exported")
	return nil
}

// buildDriver wires the pipeline stages from configuration. The CLI runs
// without metrics; there is nothing to scrape a one-shot process for.
func buildDriver(cfg *config.Config, logger zerolog.Logger) *pipeline.Driver {
	provider := serpapi.NewClient(serpapi.Config{
		BaseURL:   cfg.SerpAPI.BaseURL,
		APIKey:    cfg.SerpAPI.APIKey,
		Timeout:   cfg.SerpAPI.Timeout,
		RateLimit: cfg.SerpAPI.RateLimit,
	}, nil, logger, nil)

	locator := pdf.NewLocator(pdf.LocatorConfig{
		Timeout:   cfg.PDF.LocateTimeout,
		UserAgent: cfg.PDF.UserAgent,
	}, logger, nil)

	downloader := pdf.NewDownloader(pdf.DownloaderConfig{
		Timeout:   cfg.PDF.DownloadTimeout,
		MaxSize:   cfg.PDF.MaxSizeBytes,
		UserAgent: cfg.PDF.UserAgent,
	})

	return pipeline.NewDriver(
		provider,
		scoring.NewEngine(cfg.Scoring.Weights),
		pdf.NewAcquirer(locator, downloader, logger, nil),
		scrape.NewPageFetcher(scrape.PageFetcherConfig{UserAgent: cfg.PDF.UserAgent}, logger),
		pipeline.DriverConfig{
			DownloadDelay: cfg.Pipeline.DownloadDelay,
			DownloadDir:   cfg.PDF.DownloadDir,
		},
		logger,
		nil,
	)
}

func orDefaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
