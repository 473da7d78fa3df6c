// Package pdf resolves, downloads, and extracts text from paper PDFs.
//
// Resolution is best-effort HTML scraping: the locator applies URL-pattern
// rules, scans landing pages for PDF-looking anchors, and falls back to the
// citation_pdf_url meta tag. Every failure degrades to "no PDF", never to an
// error at the caller.
package pdf

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/scholarpipe/scholarpipe/internal/domain"
	"github.com/scholarpipe/scholarpipe/internal/observability"
)

const (
	// DefaultLocateTimeout bounds one landing-page fetch.
	DefaultLocateTimeout = 10 * time.Second

	// DefaultUserAgent is a browser-like agent; several publishers serve
	// different markup to obvious bots.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// anchorSelectors lists, in priority order, the CSS selectors scanned for a
// PDF href on a landing page.
var anchorSelectors = []string{
	`a[href$=".pdf"]`,
	`a[href*=".pdf"]`,
	`a[href*="arxiv.org/pdf/"]`,
	`a[href*="researchgate.net"][href*=".pdf"]`,
	`a[href*="ieeexplore.ieee.org"][href*="stamp"]`,
	`a[href*="dl.acm.org"][href*=".pdf"]`,
	`a[href*="link.springer.com"][href*=".pdf"]`,
}

// anchorTexts lists anchor texts that mark generic PDF download links,
// scanned after the href selectors.
var anchorTexts = []string{"PDF", "Download PDF", "Full Text PDF"}

// LocatorConfig holds locator configuration.
type LocatorConfig struct {
	// Timeout is the landing-page fetch timeout. Default: DefaultLocateTimeout.
	Timeout time.Duration
	// UserAgent is the User-Agent header. Default: DefaultUserAgent.
	UserAgent string
}

// Locator resolves a best-guess direct PDF URL for a paper's landing page.
type Locator struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewLocator creates a Locator. metrics may be nil.
func NewLocator(cfg LocatorConfig, logger zerolog.Logger, metrics *observability.Metrics) *Locator {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLocateTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &Locator{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		logger:    logger.With().Str("component", "pdf-locator").Logger(),
		metrics:   metrics,
	}
}

// Resolve determines a direct PDF URL for the paper, or an empty string when
// none can be found. Rules are applied in order and the first hit wins:
// direct .pdf links and arXiv links resolve without any network call;
// everything else is scraped from the landing page. Resolve never returns an
// error — network and parse failures are logged and yield "".
func (l *Locator) Resolve(ctx context.Context, p *domain.Paper) string {
	if p.Link == "" {
		return ""
	}

	if strings.HasSuffix(strings.ToLower(p.Link), ".pdf") {
		l.recordLocated("direct")
		return p.Link
	}

	if strings.Contains(p.Link, "arxiv.org") {
		if strings.Contains(p.Link, "/abs/") {
			l.recordLocated("arxiv")
			return strings.Replace(p.Link, "/abs/", "/pdf/", 1) + ".pdf"
		}
		if strings.Contains(p.Link, "/pdf/") {
			l.recordLocated("arxiv")
			return p.Link
		}
	}

	doc, pageURL, err := l.fetchPage(ctx, p.Link)
	if err != nil {
		l.logger.Warn().Err(err).Str("title", p.Title).Str("link", p.Link).
			Msg("landing page fetch failed")
		l.recordMiss()
		return ""
	}

	if href := l.scanAnchors(doc, pageURL); href != "" {
		l.recordLocated("anchor")
		return href
	}

	if content, ok := doc.Find(`meta[name="citation_pdf_url"]`).Attr("content"); ok && content != "" {
		l.recordLocated("meta")
		return content
	}

	l.recordMiss()
	return ""
}

// fetchPage retrieves and parses the landing page HTML.
func (l *Locator) fetchPage(ctx context.Context, link string) (*goquery.Document, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("fetching page: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML: %w", err)
	}

	pageURL := resp.Request.URL
	return doc, pageURL, nil
}

// scanAnchors walks the selector patterns in priority order and returns the
// first candidate href that survives validation, resolved to an absolute URL.
func (l *Locator) scanAnchors(doc *goquery.Document, pageURL *url.URL) string {
	for _, selector := range anchorSelectors {
		if href := l.firstValidHref(doc.Find(selector), pageURL); href != "" {
			return href
		}
	}

	// Generic "PDF" anchor texts, after all href patterns.
	anchors := doc.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		for _, want := range anchorTexts {
			if strings.Contains(text, want) {
				return true
			}
		}
		return false
	})

	return l.firstValidHref(anchors, pageURL)
}

// firstValidHref returns the first href in the selection that validates as a
// likely PDF URL, resolving relative hrefs against the page URL.
func (l *Locator) firstValidHref(sel *goquery.Selection, pageURL *url.URL) string {
	var found string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return true
		}

		href = l.absoluteURL(href, pageURL)
		if isLikelyPDFURL(href) {
			found = href
			return false
		}
		return true
	})
	return found
}

// absoluteURL resolves a possibly relative href against the page URL.
func (l *Locator) absoluteURL(href string, pageURL *url.URL) string {
	if strings.HasPrefix(href, "http") || pageURL == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return pageURL.ResolveReference(ref).String()
}

// isLikelyPDFURL accepts URLs that end in .pdf or merely contain "pdf"
// anywhere. The substring rule is deliberately permissive and a known source
// of false positives; the downloader's content-type check catches those.
func isLikelyPDFURL(u string) bool {
	if !strings.HasPrefix(u, "http") {
		return false
	}
	lower := strings.ToLower(u)
	return strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "pdf")
}

func (l *Locator) recordLocated(rule string) {
	if l.metrics != nil {
		l.metrics.PDFsLocated.WithLabelValues(rule).Inc()
	}
}

func (l *Locator) recordMiss() {
	if l.metrics != nil {
		l.metrics.LocateFailures.Inc()
	}
}
