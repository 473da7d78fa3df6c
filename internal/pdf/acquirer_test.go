package pdf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarpipe/scholarpipe/internal/domain"
)

func newTestAcquirer() *Acquirer {
	return NewAcquirer(nil, NewDownloader(DownloaderConfig{}), zerolog.Nop(), nil)
}

func TestAcquirer_Download_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 stub"))
	}))
	defer server.Close()

	dir := t.TempDir()
	p := &domain.Paper{
		Title:  "Attention Is All You Need",
		Year:   2017,
		PDFURL: server.URL + "/paper",
	}

	ok := newTestAcquirer().Download(context.Background(), p, dir)
	require.True(t, ok)

	wantPath := filepath.Join(dir, "Attention Is All You Need_2017.pdf")
	assert.Equal(t, wantPath, p.PDFPath)

	content, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 stub"), content)
}

func TestAcquirer_Download_FailureWritesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	p := &domain.Paper{Title: "Missing Paper", Year: 2020, PDFURL: server.URL + "/paper"}

	ok := newTestAcquirer().Download(context.Background(), p, dir)
	assert.False(t, ok)
	assert.Empty(t, p.PDFPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAcquirer_Download_NonPDFResponseWritesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>paywall</html>"))
	}))
	defer server.Close()

	dir := t.TempDir()
	p := &domain.Paper{Title: "Paywalled", Year: 2021, PDFURL: server.URL + "/paper"}

	ok := newTestAcquirer().Download(context.Background(), p, dir)
	assert.False(t, ok)
	assert.Empty(t, p.PDFPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAcquirer_Download_NoPDFURLAndNoLocator(t *testing.T) {
	p := &domain.Paper{Title: "Unlinked", Year: 2021, Link: "https://example.com/paper"}

	ok := newTestAcquirer().Download(context.Background(), p, t.TempDir())
	assert.False(t, ok)
}

func TestAcquirer_Download_ResolvesURLThroughLocator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 arxiv"))
	}))
	defer server.Close()

	locator := NewLocator(LocatorConfig{}, zerolog.Nop(), nil)
	acquirer := NewAcquirer(locator, NewDownloader(DownloaderConfig{}), zerolog.Nop(), nil)

	// A direct .pdf link resolves without any landing-page fetch.
	p := &domain.Paper{
		Title: "Direct Link",
		Year:  2022,
		Link:  server.URL + "/paper.pdf",
	}

	ok := acquirer.Download(context.Background(), p, t.TempDir())
	require.True(t, ok)
	assert.Equal(t, server.URL+"/paper.pdf", p.PDFURL)
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		year  int
		want  string
	}{
		{
			name:  "plain title",
			title: "Deep Learning",
			year:  2015,
			want:  "Deep Learning_2015.pdf",
		},
		{
			name:  "unsafe characters replaced",
			title: `Graphs: A "Survey" <draft>`,
			year:  2020,
			want:  "Graphs_ A _Survey_ _draft__2020.pdf",
		},
		{
			name:  "empty title",
			title: "",
			year:  2019,
			want:  "untitled_2019.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, safeFilename(tt.title, tt.year))
		})
	}
}

func TestSafeFilename_TruncatesLongTitles(t *testing.T) {
	got := safeFilename(strings.Repeat("x", 300), 2024)

	assert.Equal(t, strings.Repeat("x", 100)+"_2024.pdf", got)
}
