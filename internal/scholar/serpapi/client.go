package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scholarpipe/scholarpipe/internal/domain"
	"github.com/scholarpipe/scholarpipe/internal/observability"
	"github.com/scholarpipe/scholarpipe/internal/scholar"
)

const (
	// DefaultBaseURL is the default base URL for the SerpApi search endpoint.
	DefaultBaseURL = "https://serpapi.com/search"

	// DefaultRateLimit paces page requests at one per second, matching
	// SerpApi's guidance for sustained scraping.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// pageSize is the fixed number of results requested per page.
	pageSize = 10

	// engine is the SerpApi engine identifier for Google Scholar.
	engine = "google_scholar"

	// sourceName is the human-readable name for this provider.
	sourceName = "Google Scholar (SerpApi)"
)

// yearPattern matches a 4-digit publication year inside free text.
var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Config contains configuration options for the SerpApi client.
type Config struct {
	// BaseURL is the base URL for the API. Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey is the SerpApi key, sent as the api_key query parameter.
	APIKey string

	// Timeout is the HTTP request timeout. Defaults to DefaultTimeout.
	Timeout time.Duration

	// RateLimit is the maximum page requests per second.
	// Defaults to DefaultRateLimit.
	RateLimit float64
}

// Client implements the scholar.Provider interface for SerpApi's Google
// Scholar engine.
type Client struct {
	httpClient *scholar.HTTPClient
	config     Config
	logger     zerolog.Logger
	metrics    *observability.Metrics

	// now is the clock used when a record carries no publication year.
	now func() time.Time
}

// Compile-time check that Client implements scholar.Provider.
var _ scholar.Provider = (*Client)(nil)

// NewClient creates a new SerpApi Google Scholar client. If httpClient is
// nil, one is created from the configuration settings. metrics may be nil.
func NewClient(cfg Config, httpClient *scholar.HTTPClient, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}

	if httpClient == nil {
		httpClient = scholar.NewHTTPClient(scholar.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: 1,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger.With().Str("component", "serpapi").Logger(),
		metrics:    metrics,
		now:        time.Now,
	}
}

// Search pages through Google Scholar results until limit papers are
// collected or the provider runs out. Provider and network failures stop
// paging and return whatever was collected so far; they are logged, never
// returned. The error result is reserved for context cancellation.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]*domain.Paper, error) {
	if limit <= 0 {
		return nil, nil
	}

	start := time.Now()
	papers := make([]*domain.Paper, 0, limit)
	failed := false

	for offset := 0; len(papers) < limit; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return papers, err
		}

		page, err := c.fetchPage(ctx, query, offset, min(pageSize, limit-len(papers)))
		if err != nil {
			c.logger.Warn().Err(err).Str("query", query).Int("offset", offset).
				Msg("search page failed, returning partial results")
			failed = true
			break
		}

		if len(page.OrganicResults) == 0 {
			c.logger.Debug().Str("query", query).Int("offset", offset).
				Msg("no more results")
			break
		}

		for _, rec := range page.OrganicResults {
			p := c.ParseResult(rec)
			if p == nil {
				if c.metrics != nil {
					c.metrics.ParseFailures.Inc()
				}
				continue
			}
			papers = append(papers, p)
		}

		// A short page means the provider is exhausted.
		if len(page.OrganicResults) < pageSize {
			break
		}
	}

	if len(papers) > limit {
		papers = papers[:limit]
	}

	c.metrics.RecordSearch(len(papers), time.Since(start).Seconds(), failed)
	c.logger.Info().Str("query", query).Int("papers", len(papers)).
		Msg("search finished")

	return papers, nil
}

// Name returns the human-readable name for this provider.
func (c *Client) Name() string {
	return sourceName
}

// fetchPage retrieves one page of results from the provider.
func (c *Client) fetchPage(ctx context.Context, query string, offset, num int) (*SearchResponse, error) {
	searchURL, err := c.buildSearchURL(query, offset, num)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, strings.TrimSpace(string(body)), nil)
	}

	// Limit body to 10MB to prevent resource exhaustion.
	var page SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if page.Error != "" {
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, page.Error, nil)
	}

	return &page, nil
}

// buildSearchURL constructs the search URL with query parameters.
func (c *Client) buildSearchURL(query string, offset, num int) (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	q := base.Query()
	q.Set("engine", engine)
	q.Set("q", query)
	q.Set("api_key", c.config.APIKey)
	q.Set("start", strconv.Itoa(offset))
	q.Set("num", strconv.Itoa(num))
	base.RawQuery = q.Encode()

	return base.String(), nil
}

// ParseResult normalizes one raw organic result into a Paper, tolerating
// missing or malformed fields. Returns nil for records carrying neither a
// title nor a link; callers must skip nil results.
func (c *Client) ParseResult(rec OrganicResult) *domain.Paper {
	if rec.Title == "" && rec.Link == "" {
		return nil
	}

	summary := rec.PublicationInfo.Summary

	year := c.now().Year()
	if match := yearPattern.FindString(summary); match != "" {
		// The pattern guarantees 4 digits.
		year, _ = strconv.Atoi(match)
	}

	var authors, venue string
	if summary != "" {
		parts := strings.Split(summary, " - ")
		if len(parts) >= 2 {
			authors = parts[0]
			if len(parts) > 2 {
				venue = parts[len(parts)-1]
			} else {
				venue = parts[1]
			}
		}
	}

	citations := rec.InlineLinks.CitedBy.Total
	if citations < 0 {
		citations = 0
	}

	return &domain.Paper{
		Title:     rec.Title,
		Authors:   authors,
		Year:      year,
		Venue:     venue,
		Citations: citations,
		Snippet:   rec.Snippet,
		Link:      rec.Link,
	}
}
