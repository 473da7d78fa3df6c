package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaper_HasPDF(t *testing.T) {
	t.Run("false before download", func(t *testing.T) {
		p := &Paper{Title: "Attention Is All You Need"}
		assert.False(t, p.HasPDF())
	})

	t.Run("true once path is set", func(t *testing.T) {
		p := &Paper{Title: "Attention Is All You Need", PDFPath: "papers/attention_2017.pdf"}
		assert.True(t, p.HasPDF())
	})
}

func TestPaper_JSONFieldNames(t *testing.T) {
	p := &Paper{
		Title:          "Deep Residual Learning",
		Authors:        "K He, X Zhang",
		Year:           2016,
		Venue:          "CVPR",
		Citations:      1000,
		Snippet:        "residual networks",
		Link:           "https://example.org/resnet",
		PageContent:    "page text",
		PDFURL:         "https://example.org/resnet.pdf",
		PDFPath:        "papers/resnet_2016.pdf",
		PDFContent:     "pdf text",
		RelevanceScore: 0.5,
		VenueScore:     1.0,
		RecencyScore:   0.4,
		TotalScore:     0.65,
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))

	for _, key := range []string{
		"title", "authors", "year", "venue", "citations", "snippet", "link",
		"paper_content", "pdf_url", "pdf_path", "pdf_content",
		"relevance_score", "venue_score", "recency_score", "total_score",
	} {
		assert.Contains(t, record, key)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("query", "must not be empty")

	assert.Equal(t, "validation error: query: must not be empty", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestExternalAPIError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewExternalAPIError("SerpApi", 503, "upstream down", cause)

	assert.Equal(t, "SerpApi API error (status 503): upstream down", err.Error())
	assert.True(t, errors.Is(err, cause))
}
