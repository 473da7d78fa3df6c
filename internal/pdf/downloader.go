package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for PDF download operations.
var (
	// ErrNotPDF is returned when neither the response Content-Type nor the
	// URL suffix identifies the payload as a PDF.
	ErrNotPDF = errors.New("pdf: response is not a PDF")
	// ErrTooLarge is returned when the file exceeds the maximum allowed size.
	ErrTooLarge = errors.New("pdf: file exceeds maximum size")
	// ErrDownloadFailed is returned when the download fails due to network or HTTP errors.
	ErrDownloadFailed = errors.New("pdf: download failed")
)

// DownloadResult holds the result of downloading a PDF.
type DownloadResult struct {
	// Content is the PDF bytes.
	Content []byte
	// SizeBytes is the size of the content in bytes.
	SizeBytes int64
	// ContentType is the Content-Type header from the response.
	ContentType string
}

// DownloaderConfig holds downloader configuration.
type DownloaderConfig struct {
	// Timeout is the HTTP request timeout. Default: 30 seconds.
	Timeout time.Duration
	// MaxSize is the maximum file size in bytes. Default: 100MB.
	MaxSize int64
	// UserAgent is the User-Agent header. Default: DefaultUserAgent.
	UserAgent string
}

// Downloader fetches PDFs from URLs with content-type validation. Nothing is
// handed back for persistence unless the payload passed validation, so
// non-PDF garbage is never written to disk.
type Downloader struct {
	client    *http.Client
	maxSize   int64
	userAgent string
}

// NewDownloader creates a new Downloader with the given configuration.
func NewDownloader(cfg DownloaderConfig) *Downloader {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100 * 1024 * 1024 // 100MB
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &Downloader{
		client:    &http.Client{Timeout: cfg.Timeout},
		maxSize:   cfg.MaxSize,
		userAgent: cfg.UserAgent,
	}
}

// Download fetches a PDF from the given URL.
//
// The payload is accepted when the response Content-Type contains "pdf" or
// the URL itself ends in ".pdf" — publisher download endpoints frequently
// mislabel PDFs as octet-streams or text, so the URL suffix is trusted as a
// second signal. Returns ErrNotPDF when neither holds, ErrTooLarge when the
// response exceeds MaxSize, and ErrDownloadFailed (wrapping the HTTP status)
// for non-2xx responses.
func (d *Downloader) Download(ctx context.Context, url string) (*DownloadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %w", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/pdf, */*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrDownloadFailed, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "pdf") &&
		!strings.HasSuffix(strings.ToLower(url), ".pdf") {
		return nil, fmt.Errorf("%w: Content-Type is %q", ErrNotPDF, contentType)
	}

	// Read one extra byte to detect oversized files.
	limitReader := io.LimitReader(resp.Body, d.maxSize+1)
	content, err := io.ReadAll(limitReader)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrDownloadFailed, err)
	}

	if int64(len(content)) > d.maxSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrTooLarge, d.maxSize)
	}

	return &DownloadResult{
		Content:     content,
		SizeBytes:   int64(len(content)),
		ContentType: contentType,
	}, nil
}
