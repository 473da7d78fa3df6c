package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarpipe/scholarpipe/internal/domain"
	"github.com/scholarpipe/scholarpipe/internal/scoring"
)

type fakeProvider struct {
	papers []*domain.Paper
	err    error
	limit  int
}

func (f *fakeProvider) Search(_ context.Context, _ string, limit int) ([]*domain.Paper, error) {
	f.limit = limit
	return f.papers, f.err
}

func (f *fakeProvider) Name() string { return "fake" }

type fakeAcquirer struct {
	failTitles map[string]bool
	attempts   []string
	dirs       []string
}

func (f *fakeAcquirer) Download(_ context.Context, p *domain.Paper, dir string) bool {
	f.attempts = append(f.attempts, p.Title)
	f.dirs = append(f.dirs, dir)
	if f.failTitles[p.Title] {
		return false
	}
	p.PDFPath = dir + "/" + p.Title + ".pdf"
	return true
}

type fakePages struct {
	content map[string]string
	calls   int
}

func (f *fakePages) Content(_ context.Context, pageURL string) string {
	f.calls++
	return f.content[pageURL]
}

func newTestDriver(provider *fakeProvider, acquirer *fakeAcquirer, pages ContentFetcher) (*Driver, *[]time.Duration) {
	d := NewDriver(
		provider,
		scoring.NewEngine(scoring.DefaultWeights()),
		acquirer,
		pages,
		DriverConfig{DownloadDelay: time.Millisecond},
		zerolog.Nop(),
		nil,
	)
	var sleeps []time.Duration
	d.sleep = func(dur time.Duration) { sleeps = append(sleeps, dur) }
	return d, &sleeps
}

func testPapers() []*domain.Paper {
	return []*domain.Paper{
		{Title: "Low Relevance", Year: 2010, Link: "https://example.com/low", Snippet: "unrelated topic"},
		{Title: "Deep Learning Survey", Year: 2025, Venue: "NeurIPS", Citations: 900,
			Link: "https://example.com/high", Snippet: "deep learning methods"},
		{Title: "Deep Methods", Year: 2023, Link: "https://example.com/mid", Snippet: "deep models"},
	}
}

func TestDriver_SearchAndRank_OrdersByScore(t *testing.T) {
	provider := &fakeProvider{papers: testPapers()}
	d, _ := newTestDriver(provider, &fakeAcquirer{}, nil)

	got, err := d.SearchAndRank(context.Background(), Request{
		Query:      "deep learning",
		NumResults: 10,
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 10, provider.limit)
	assert.Equal(t, "Deep Learning Survey", got[0].Title)
	assert.Equal(t, "Low Relevance", got[2].Title)
	for _, p := range got {
		assert.NotZero(t, p.TotalScore)
	}
}

func TestDriver_SearchAndRank_PartialResultsOnProviderError(t *testing.T) {
	provider := &fakeProvider{
		papers: testPapers()[:1],
		err:    errors.New("rate limited"),
	}
	d, _ := newTestDriver(provider, &fakeAcquirer{}, nil)

	got, err := d.SearchAndRank(context.Background(), Request{Query: "deep learning"})

	require.NoError(t, err, "partial results should not surface the provider error")
	assert.Len(t, got, 1)
}

func TestDriver_SearchAndRank_ErrorWhenNothingGathered(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	d, _ := newTestDriver(provider, &fakeAcquirer{}, nil)

	_, err := d.SearchAndRank(context.Background(), Request{Query: "deep learning"})

	assert.Error(t, err)
}

func TestDriver_SearchAndRank_FetchesPageContent(t *testing.T) {
	papers := testPapers()
	papers[1].PageContent = "already fetched"
	provider := &fakeProvider{papers: papers}
	pages := &fakePages{content: map[string]string{
		"https://example.com/low": "landing page text",
		"https://example.com/mid": "other landing page",
	}}
	d, _ := newTestDriver(provider, &fakeAcquirer{}, pages)

	got, err := d.SearchAndRank(context.Background(), Request{
		Query:        "deep learning",
		FetchContent: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, pages.calls, "papers with existing content are skipped")
	byTitle := make(map[string]*domain.Paper)
	for _, p := range got {
		byTitle[p.Title] = p
	}
	assert.Equal(t, "landing page text", byTitle["Low Relevance"].PageContent)
	assert.Equal(t, "already fetched", byTitle["Deep Learning Survey"].PageContent)
}

func TestDriver_SearchAndRank_WeightOverride(t *testing.T) {
	// Recency-only weights rank the low-relevance 2023 paper above the
	// 2010 one regardless of query match.
	papers := []*domain.Paper{
		{Title: "Old Deep Learning Paper", Year: 2010, Snippet: "deep learning"},
		{Title: "Recent Unrelated Paper", Year: 2023, Snippet: "botany"},
	}
	d, _ := newTestDriver(&fakeProvider{papers: papers}, &fakeAcquirer{}, nil)

	got, err := d.SearchAndRank(context.Background(), Request{
		Query:   "deep learning",
		Weights: scoring.Weights{Recency: 1},
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Recent Unrelated Paper", got[0].Title)
}

func TestDriver_SearchAndRank_DropsDuplicateTitles(t *testing.T) {
	papers := []*domain.Paper{
		{Title: "Attention Is All You Need", Year: 2017, Link: "https://a"},
		{Title: "attention is all you need", Year: 2017, Link: "https://b"},
		{Title: "A Different Paper Entirely", Year: 2020, Link: "https://c"},
		{Title: "", Year: 2019, Link: "https://d"},
		{Title: "", Year: 2018, Link: "https://e"},
	}
	d, _ := newTestDriver(&fakeProvider{papers: papers}, &fakeAcquirer{}, nil)

	got, err := d.SearchAndRank(context.Background(), Request{Query: "attention"})
	require.NoError(t, err)

	require.Len(t, got, 4, "case-insensitive duplicate dropped, untitled papers kept")
	titles := make(map[string]bool)
	for _, p := range got {
		titles[p.Title] = true
	}
	assert.True(t, titles["Attention Is All You Need"])
	assert.False(t, titles["attention is all you need"])
}

func TestDriver_DownloadTop_SkipsFailures(t *testing.T) {
	acquirer := &fakeAcquirer{failTitles: map[string]bool{"B": true}}
	d, sleeps := newTestDriver(&fakeProvider{}, acquirer, nil)

	papers := []*domain.Paper{{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"}}

	got := d.DownloadTop(context.Background(), papers, 3, "out")

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "C", got[1].Title)
	assert.Equal(t, []string{"A", "B", "C"}, acquirer.attempts, "failures must not abort the loop")
	assert.Len(t, *sleeps, 3, "delay applies after every attempt, success or not")
	assert.Equal(t, []string{"out", "out", "out"}, acquirer.dirs)
}

func TestDriver_DownloadTop_ClampsTopK(t *testing.T) {
	acquirer := &fakeAcquirer{}
	d, _ := newTestDriver(&fakeProvider{}, acquirer, nil)

	got := d.DownloadTop(context.Background(), []*domain.Paper{{Title: "only"}}, 5, "")

	assert.Len(t, got, 1)
	assert.Equal(t, []string{DefaultDownloadDir}, acquirer.dirs, "empty dir falls back to the default")
}

func TestDriver_DownloadTop_StopsOnCancelledContext(t *testing.T) {
	acquirer := &fakeAcquirer{}
	d, _ := newTestDriver(&fakeProvider{}, acquirer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := d.DownloadTop(ctx, testPapers(), 3, "out")

	assert.Empty(t, got)
	assert.Empty(t, acquirer.attempts)
}

func TestDriver_Run_EndToEnd(t *testing.T) {
	provider := &fakeProvider{papers: testPapers()}
	acquirer := &fakeAcquirer{failTitles: map[string]bool{"Low Relevance": true}}
	d, _ := newTestDriver(provider, acquirer, nil)

	result, err := d.Run(context.Background(), Request{
		Query:      "deep learning",
		NumResults: 10,
		TopK:       3,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Papers, 3)
	require.Len(t, result.Downloaded, 2)
	assert.Equal(t, "Deep Learning Survey", result.Downloaded[0].Title)
}

func TestDriver_Run_ZeroTopKSkipsDownloads(t *testing.T) {
	acquirer := &fakeAcquirer{}
	d, _ := newTestDriver(&fakeProvider{papers: testPapers()}, acquirer, nil)

	result, err := d.Run(context.Background(), Request{Query: "deep learning"})
	require.NoError(t, err)

	assert.Empty(t, result.Downloaded)
	assert.Empty(t, acquirer.attempts)
}

func TestExportJSON(t *testing.T) {
	papers := []*domain.Paper{
		{
			Title:      "First",
			Authors:    "A Author",
			Venue:      "NeurIPS",
			Year:       2024,
			Citations:  10,
			PDFContent: strings.Repeat("x", maxExportContentLen+500),
			TotalScore: 0.9,
			Link:       "https://example.com/first",
		},
		{Title: "Second", Year: 2023},
		{Title: "Third", Year: 2022},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, papers, 2))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2, "export is limited to topN")

	first := records[0]
	assert.Equal(t, "First", first["title"])
	assert.Equal(t, "A Author", first["authors"])
	assert.Len(t, first["pdf_content"], maxExportContentLen)
	assert.Equal(t, 0.9, first["total_score"])

	// Every field of the original export format is present, even when zero.
	for _, key := range []string{
		"title", "authors", "venue", "year", "citations", "snippet",
		"paper_content", "pdf_url", "pdf_path", "pdf_content",
		"total_score", "relevance_score", "venue_score", "recency_score", "link",
	} {
		assert.Contains(t, records[1], key)
	}
}

func TestExportJSON_PreviewCountsCharacters(t *testing.T) {
	papers := []*domain.Paper{{
		Title:      "Accented",
		PDFContent: strings.Repeat("é", maxExportContentLen+500),
	}}

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, papers, 1))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 1)

	preview, ok := records[0]["pdf_content"].(string)
	require.True(t, ok)
	assert.Equal(t, maxExportContentLen, len([]rune(preview)))
	assert.Equal(t, strings.Repeat("é", maxExportContentLen), preview)
}

func TestExportJSON_TopNLargerThanPapers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, []*domain.Paper{{Title: "only"}}, 10))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	assert.Len(t, records, 1)
}
