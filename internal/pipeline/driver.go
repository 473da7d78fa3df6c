// Package pipeline orchestrates the search, scoring, and PDF acquisition
// stages into one sequential run.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scholarpipe/scholarpipe/internal/domain"
	"github.com/scholarpipe/scholarpipe/internal/observability"
	"github.com/scholarpipe/scholarpipe/internal/scholar"
	"github.com/scholarpipe/scholarpipe/internal/scoring"
	"github.com/scholarpipe/scholarpipe/internal/textutil"
)

// DefaultDownloadDelay is the pause between consecutive PDF downloads.
// Publishers throttle aggressively; the pipeline is deliberately slow.
const DefaultDownloadDelay = 2 * time.Second

// DefaultDownloadDir is where acquired PDFs are stored.
const DefaultDownloadDir = "papers"

// Ranker scores and orders papers. Implemented by scoring.Engine.
type Ranker interface {
	Rank(papers []*domain.Paper, query, field string) []*domain.Paper
}

// PaperAcquirer fetches one paper's PDF into dir, reporting success.
// Implemented by pdf.Acquirer.
type PaperAcquirer interface {
	Download(ctx context.Context, p *domain.Paper, dir string) bool
}

// ContentFetcher extracts the visible text of a paper's landing page.
// Implemented by scrape.PageFetcher.
type ContentFetcher interface {
	Content(ctx context.Context, pageURL string) string
}

// Request describes one pipeline run.
type Request struct {
	// Query is the search query. Required.
	Query string
	// Field selects the venue list used for venue scoring.
	Field string
	// NumResults caps how many papers the search gathers.
	NumResults int
	// TopK is how many top-ranked papers get their PDFs downloaded.
	// Zero skips the download stage.
	TopK int
	// DownloadDir overrides the default PDF directory.
	DownloadDir string
	// FetchContent enables landing-page text extraction for papers
	// whose PDF is not available.
	FetchContent bool
	// Weights overrides the scoring weights for this run. Zero weights
	// keep the driver's configured ranker.
	Weights scoring.Weights
}

// Result is the outcome of one pipeline run.
type Result struct {
	// RunID identifies the run in logs and responses.
	RunID string
	// Papers is every paper gathered, ranked by total score.
	Papers []*domain.Paper
	// Downloaded is the subset of Papers whose PDF was acquired.
	Downloaded []*domain.Paper
}

// DriverConfig holds pipeline driver configuration.
type DriverConfig struct {
	// DownloadDelay is the pause between downloads. Default: 2s.
	DownloadDelay time.Duration
	// DownloadDir is the default PDF directory. Default: "papers".
	DownloadDir string
}

// Driver runs the pipeline stages strictly in sequence. It tolerates partial
// failure at every stage: a paper that cannot be fetched, located, or
// downloaded is skipped, never fatal.
type Driver struct {
	provider scholar.Provider
	ranker   Ranker
	acquirer PaperAcquirer
	pages    ContentFetcher

	downloadDelay time.Duration
	downloadDir   string

	logger  zerolog.Logger
	metrics *observability.Metrics

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewDriver creates a Driver. pages may be nil, disabling landing-page
// content extraction; metrics may be nil.
func NewDriver(
	provider scholar.Provider,
	ranker Ranker,
	acquirer PaperAcquirer,
	pages ContentFetcher,
	cfg DriverConfig,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Driver {
	if cfg.DownloadDelay == 0 {
		cfg.DownloadDelay = DefaultDownloadDelay
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = DefaultDownloadDir
	}

	return &Driver{
		provider:      provider,
		ranker:        ranker,
		acquirer:      acquirer,
		pages:         pages,
		downloadDelay: cfg.DownloadDelay,
		downloadDir:   cfg.DownloadDir,
		logger:        logger.With().Str("component", "pipeline").Logger(),
		metrics:       metrics,
		sleep:         time.Sleep,
	}
}

// SearchAndRank gathers papers for the request, optionally fills in
// landing-page content, and returns them ranked by total score. The search
// is best-effort: whatever was gathered before a provider error is still
// scored and returned. An error is returned only when nothing was gathered.
func (d *Driver) SearchAndRank(ctx context.Context, req Request) ([]*domain.Paper, error) {
	logger := observability.WithSearchContext(d.logger, req.Query, d.provider.Name())
	d.metricsSearchStarted()

	papers, err := d.provider.Search(ctx, req.Query, req.NumResults)
	if err != nil {
		if len(papers) == 0 {
			return nil, err
		}
		logger.Warn().Err(err).Int("papers", len(papers)).
			Msg("search ended early, continuing with partial results")
	}
	logger.Info().Int("papers", len(papers)).Msg("search complete")

	if deduped := dedupe(papers); len(deduped) < len(papers) {
		logger.Info().Int("dropped", len(papers)-len(deduped)).
			Msg("dropped duplicate papers")
		papers = deduped
	}

	if req.FetchContent && d.pages != nil {
		for _, p := range papers {
			if p.Link == "" || p.PageContent != "" {
				continue
			}
			p.PageContent = d.pages.Content(ctx, p.Link)
		}
	}

	ranker := d.ranker
	if !req.Weights.IsZero() {
		ranker = scoring.NewEngine(req.Weights)
	}
	return ranker.Rank(papers, req.Query, req.Field), nil
}

// DownloadTop acquires PDFs for the first topK papers, strictly one at a
// time with a fixed delay after every attempt regardless of outcome. Papers
// whose acquisition fails are skipped. Returns the successfully downloaded
// subset in rank order.
func (d *Driver) DownloadTop(ctx context.Context, papers []*domain.Paper, topK int, dir string) []*domain.Paper {
	if dir == "" {
		dir = d.downloadDir
	}
	if topK > len(papers) {
		topK = len(papers)
	}

	var downloaded []*domain.Paper
	for i := 0; i < topK; i++ {
		if ctx.Err() != nil {
			d.logger.Warn().Err(ctx.Err()).Msg("download stage cancelled")
			break
		}

		if d.acquirer.Download(ctx, papers[i], dir) {
			downloaded = append(downloaded, papers[i])
		}

		d.sleep(d.downloadDelay)
	}
	return downloaded
}

// Run executes the full pipeline: search, rank, and download the top K.
func (d *Driver) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	logger := observability.WithRunContext(d.logger, runID, req.Query)
	start := time.Now()

	logger.Info().Int("num_results", req.NumResults).Int("top_k", req.TopK).
		Msg("pipeline run started")

	papers, err := d.SearchAndRank(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("pipeline run failed")
		d.recordRun("error", time.Since(start))
		return nil, err
	}

	var downloaded []*domain.Paper
	if req.TopK > 0 {
		downloaded = d.DownloadTop(ctx, papers, req.TopK, req.DownloadDir)
	}

	logger.Info().
		Int("papers", len(papers)).
		Int("downloaded", len(downloaded)).
		Dur("duration", time.Since(start)).
		Msg("pipeline run complete")
	d.recordRun("success", time.Since(start))

	return &Result{RunID: runID, Papers: papers, Downloaded: downloaded}, nil
}

// dedupeThreshold is the title keyword overlap above which two papers are
// treated as the same work. Scholar results frequently repeat a paper
// across publisher mirrors with trivially different titles.
const dedupeThreshold = 0.9

// dedupe drops papers whose title matches an earlier paper, preserving
// order. Papers without a title are always kept.
func dedupe(papers []*domain.Paper) []*domain.Paper {
	kept := make([]*domain.Paper, 0, len(papers))
	for _, p := range papers {
		if p.Title == "" {
			kept = append(kept, p)
			continue
		}

		duplicate := false
		for _, k := range kept {
			if strings.EqualFold(textutil.CleanText(p.Title), textutil.CleanText(k.Title)) ||
				textutil.SimilarityScore(p.Title, k.Title) >= dedupeThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, p)
		}
	}
	return kept
}

func (d *Driver) metricsSearchStarted() {
	if d.metrics == nil {
		return
	}
	d.metrics.SearchesStarted.Inc()
}

func (d *Driver) recordRun(outcome string, elapsed time.Duration) {
	if d.metrics == nil {
		return
	}
	d.metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	d.metrics.PipelineDuration.Observe(elapsed.Seconds())
}
