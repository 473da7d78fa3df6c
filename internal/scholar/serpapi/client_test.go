package serpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarpipe/scholarpipe/internal/scholar"
)

// fixedClock pins "current year" for parser tests.
func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	}
}

func newTestClientForURL(t *testing.T, baseURL string) *Client {
	t.Helper()
	httpClient := scholar.NewHTTPClient(scholar.HTTPClientConfig{
		RateLimit:  1000,
		BurstSize:  1000,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	c := NewClient(Config{BaseURL: baseURL, APIKey: "test-key"}, httpClient, zerolog.Nop(), nil)
	c.now = fixedClock(2026)
	return c
}

func scholarResult(title, summary, snippet, link string, citations int) OrganicResult {
	return OrganicResult{
		Title:           title,
		PublicationInfo: PublicationInfo{Summary: summary},
		InlineLinks:     InlineLinks{CitedBy: CitedBy{Total: citations}},
		Snippet:         snippet,
		Link:            link,
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{}, nil, zerolog.Nop(), nil)

	require.NotNil(t, c)
	assert.Equal(t, DefaultBaseURL, c.config.BaseURL)
	assert.Equal(t, DefaultTimeout, c.config.Timeout)
	assert.Equal(t, DefaultRateLimit, c.config.RateLimit)
	assert.Equal(t, sourceName, c.Name())
}

func TestSearch_PagesUntilLimit(t *testing.T) {
	var pages atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		assert.Equal(t, "google_scholar", r.URL.Query().Get("engine"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		results := make([]OrganicResult, 0, 10)
		for i := 0; i < 10; i++ {
			results = append(results, scholarResult(
				"Paper "+strconv.Itoa(start+i),
				"A Author - NeurIPS, 2023 - proceedings",
				"snippet",
				"https://example.org/"+strconv.Itoa(start+i),
				5,
			))
		}
		_ = json.NewEncoder(w).Encode(SearchResponse{OrganicResults: results})
	}))
	defer server.Close()

	c := newTestClientForURL(t, server.URL)

	papers, err := c.Search(context.Background(), "deep learning", 25)
	require.NoError(t, err)

	assert.Len(t, papers, 25)
	assert.Equal(t, int32(3), pages.Load())
	assert.Equal(t, "Paper 0", papers[0].Title)
	assert.Equal(t, "Paper 24", papers[24].Title)
}

func TestSearch_StopsOnShortPage(t *testing.T) {
	var pages atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		results := []OrganicResult{
			scholarResult("Only Paper", "B Author - ICML, 2024", "s", "https://example.org/1", 1),
		}
		_ = json.NewEncoder(w).Encode(SearchResponse{OrganicResults: results})
	}))
	defer server.Close()

	c := newTestClientForURL(t, server.URL)

	papers, err := c.Search(context.Background(), "anything", 50)
	require.NoError(t, err)

	assert.Len(t, papers, 1)
	assert.Equal(t, int32(1), pages.Load())
}

func TestSearch_MissingResultsMeansExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"search_metadata": {"status": "Success"}}`))
	}))
	defer server.Close()

	c := newTestClientForURL(t, server.URL)

	papers, err := c.Search(context.Background(), "obscure query", 10)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestSearch_ReturnsPartialOnProviderFailure(t *testing.T) {
	var pages atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pages.Add(1) == 1 {
			results := make([]OrganicResult, 0, 10)
			for i := 0; i < 10; i++ {
				results = append(results, scholarResult(
					"Paper "+strconv.Itoa(i), "C Author - CVPR, 2022", "s",
					"https://example.org/"+strconv.Itoa(i), 0,
				))
			}
			_ = json.NewEncoder(w).Encode(SearchResponse{OrganicResults: results})
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := newTestClientForURL(t, server.URL)

	papers, err := c.Search(context.Background(), "partial", 30)
	require.NoError(t, err)

	assert.Len(t, papers, 10)
}

func TestSearch_ProviderErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(SearchResponse{Error: "Invalid API key"})
	}))
	defer server.Close()

	c := newTestClientForURL(t, server.URL)

	papers, err := c.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestSearch_ZeroLimit(t *testing.T) {
	c := newTestClientForURL(t, "http://unused.invalid")

	papers, err := c.Search(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Nil(t, papers)
}

func TestParseResult(t *testing.T) {
	c := NewClient(Config{}, nil, zerolog.Nop(), nil)
	c.now = fixedClock(2026)

	t.Run("full summary", func(t *testing.T) {
		p := c.ParseResult(scholarResult(
			"Attention Is All You Need",
			"A Vaswani, N Shazeer - Advances in neural information processing systems, 2017 - proceedings.neurips.cc",
			"The dominant sequence transduction models...",
			"https://example.org/attention",
			90000,
		))

		require.NotNil(t, p)
		assert.Equal(t, "Attention Is All You Need", p.Title)
		assert.Equal(t, "A Vaswani, N Shazeer", p.Authors)
		assert.Equal(t, 2017, p.Year)
		assert.Equal(t, "proceedings.neurips.cc", p.Venue)
		assert.Equal(t, 90000, p.Citations)
		assert.Equal(t, "https://example.org/attention", p.Link)
	})

	t.Run("two-segment summary uses second part as venue", func(t *testing.T) {
		p := c.ParseResult(scholarResult("T", "J Doe - Nature", "", "https://x.org", 0))

		require.NotNil(t, p)
		assert.Equal(t, "J Doe", p.Authors)
		assert.Equal(t, "Nature", p.Venue)
	})

	t.Run("missing year falls back to current year", func(t *testing.T) {
		p := c.ParseResult(scholarResult("T", "J Doe - Nature", "", "https://x.org", 0))

		require.NotNil(t, p)
		assert.Equal(t, 2026, p.Year)
	})

	t.Run("extracts first year in summary", func(t *testing.T) {
		p := c.ParseResult(scholarResult("T", "J Doe - Proc 1998, 2003 - pub", "", "https://x.org", 0))

		require.NotNil(t, p)
		assert.Equal(t, 1998, p.Year)
	})

	t.Run("empty summary leaves authors and venue empty", func(t *testing.T) {
		p := c.ParseResult(scholarResult("T", "", "", "https://x.org", 0))

		require.NotNil(t, p)
		assert.Empty(t, p.Authors)
		assert.Empty(t, p.Venue)
		assert.Equal(t, 2026, p.Year)
	})

	t.Run("single-segment summary leaves authors and venue empty", func(t *testing.T) {
		p := c.ParseResult(scholarResult("T", "lone segment 2010", "", "https://x.org", 0))

		require.NotNil(t, p)
		assert.Empty(t, p.Authors)
		assert.Empty(t, p.Venue)
		assert.Equal(t, 2010, p.Year)
	})

	t.Run("negative citations clamp to zero", func(t *testing.T) {
		p := c.ParseResult(scholarResult("T", "", "", "https://x.org", -5))

		require.NotNil(t, p)
		assert.Equal(t, 0, p.Citations)
	})

	t.Run("empty record returns nil", func(t *testing.T) {
		p := c.ParseResult(OrganicResult{})
		assert.Nil(t, p)
	})
}
