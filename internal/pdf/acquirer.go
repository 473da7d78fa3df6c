package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scholarpipe/scholarpipe/internal/domain"
	"github.com/scholarpipe/scholarpipe/internal/observability"
)

// unsafeFilenameChars are stripped from paper titles before they become
// filenames.
const unsafeFilenameChars = `<>:"/\|?*`

// maxFilenameTitleLen bounds the title portion of a generated filename.
const maxFilenameTitleLen = 100

// Acquirer ties together URL resolution, download, and text extraction
// for a single paper.
type Acquirer struct {
	locator    *Locator
	downloader *Downloader
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// NewAcquirer creates an Acquirer. locator may be nil, in which case
// papers without a resolved PDF URL are skipped.
func NewAcquirer(locator *Locator, downloader *Downloader, logger zerolog.Logger, metrics *observability.Metrics) *Acquirer {
	return &Acquirer{
		locator:    locator,
		downloader: downloader,
		logger:     logger,
		metrics:    metrics,
	}
}

// Download acquires the PDF for p into dir, setting PDFURL, PDFPath, and
// PDFContent on success. Every failure is logged and reported as false;
// the caller decides whether to continue with the next paper.
func (a *Acquirer) Download(ctx context.Context, p *domain.Paper, dir string) bool {
	logger := observability.WithPaperContext(a.logger, p.Title, p.Link)

	if p.PDFURL == "" && a.locator != nil {
		p.PDFURL = a.locator.Resolve(ctx, p)
	}
	if p.PDFURL == "" {
		logger.Debug().Msg("no pdf url resolved, skipping download")
		return false
	}

	result, err := a.downloader.Download(ctx, p.PDFURL)
	if err != nil {
		logger.Warn().Err(err).Str("pdf_url", p.PDFURL).Msg("pdf download failed")
		a.metrics.RecordDownload(0, failReason(err))
		return false
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("failed to create download directory")
		a.metrics.RecordDownload(0, "write")
		return false
	}

	path := filepath.Join(dir, safeFilename(p.Title, p.Year))
	if err := os.WriteFile(path, result.Content, 0o644); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to persist pdf")
		a.metrics.RecordDownload(0, "write")
		return false
	}
	p.PDFPath = path
	a.metrics.RecordDownload(result.SizeBytes, "")

	text, err := ExtractText(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("pdf text extraction failed")
		a.metrics.RecordExtractionFailure()
	}
	p.PDFContent = text

	logger.Info().
		Str("path", path).
		Int64("size_bytes", result.SizeBytes).
		Int("content_len", len(p.PDFContent)).
		Msg("pdf acquired")
	return true
}

// failReason maps a download error to a metrics label.
func failReason(err error) string {
	switch {
	case errors.Is(err, ErrNotPDF):
		return "content_type"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	default:
		return "network"
	}
}

// safeFilename builds "{title}_{year}.pdf" with filesystem-unsafe
// characters replaced and the title truncated to a sane length.
func safeFilename(title string, year int) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeFilenameChars, r) {
			return '_'
		}
		return r
	}, title)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		cleaned = "untitled"
	}
	runes := []rune(cleaned)
	if len(runes) > maxFilenameTitleLen {
		cleaned = string(runes[:maxFilenameTitleLen])
	}
	return fmt.Sprintf("%s_%d.pdf", cleaned, year)
}
