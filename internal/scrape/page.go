// Package scrape fetches paper landing pages and reduces them to plain text.
//
// Landing-page text is a fallback body for papers whose PDF could not be
// acquired: abstracts and author summaries are usually present in the HTML
// even when the full text sits behind a paywall.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/scholarpipe/scholarpipe/internal/domain"
	"github.com/scholarpipe/scholarpipe/internal/textutil"
)

// DefaultFetchTimeout bounds one landing-page fetch.
const DefaultFetchTimeout = 10 * time.Second

// defaultUserAgent is a browser-like agent; several publishers serve
// different markup to obvious bots.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var whitespaceRuns = regexp.MustCompile(`\s+`)

// PageFetcherConfig holds page fetcher configuration.
type PageFetcherConfig struct {
	// Timeout is the page fetch timeout. Default: DefaultFetchTimeout.
	Timeout time.Duration
	// UserAgent is the User-Agent header. Default: a browser-like agent.
	UserAgent string
	// MaxContentLen caps the extracted text length in characters.
	// Default: domain.MaxPageContentLen.
	MaxContentLen int
}

// PageFetcher retrieves a web page and extracts its visible text.
type PageFetcher struct {
	client        *http.Client
	userAgent     string
	maxContentLen int
	logger        zerolog.Logger
}

// NewPageFetcher creates a PageFetcher with the given configuration.
func NewPageFetcher(cfg PageFetcherConfig, logger zerolog.Logger) *PageFetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxContentLen == 0 {
		cfg.MaxContentLen = domain.MaxPageContentLen
	}

	return &PageFetcher{
		client:        &http.Client{Timeout: cfg.Timeout},
		userAgent:     cfg.UserAgent,
		maxContentLen: cfg.MaxContentLen,
		logger:        logger.With().Str("component", "page-fetcher").Logger(),
	}
}

// Content fetches the page at the given URL and returns its visible text:
// script and style elements stripped, whitespace runs collapsed, trimmed,
// and truncated to the configured cap. Returns an empty string on any
// failure.
func (f *PageFetcher) Content(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	text, err := f.fetch(ctx, pageURL)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", pageURL).Msg("page content fetch failed")
		return ""
	}
	return text
}

func (f *PageFetcher) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching page: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	text := whitespaceRuns.ReplaceAllString(doc.Find("body").Text(), " ")
	text = strings.TrimSpace(text)
	return textutil.Truncate(text, f.maxContentLen), nil
}
