package pipeline

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/scholarpipe/scholarpipe/internal/domain"
	"github.com/scholarpipe/scholarpipe/internal/textutil"
)

// maxExportContentLen caps the pdf_content preview in exported records.
const maxExportContentLen = 1000

// exportRecord is one paper in the JSON export. It mirrors the paper fields
// but previews pdf_content instead of carrying the full extracted text.
type exportRecord struct {
	Title          string  `json:"title"`
	Authors        string  `json:"authors"`
	Venue          string  `json:"venue"`
	Year           int     `json:"year"`
	Citations      int     `json:"citations"`
	Snippet        string  `json:"snippet"`
	PaperContent   string  `json:"paper_content"`
	PDFURL         string  `json:"pdf_url"`
	PDFPath        string  `json:"pdf_path"`
	PDFContent     string  `json:"pdf_content"`
	TotalScore     float64 `json:"total_score"`
	RelevanceScore float64 `json:"relevance_score"`
	VenueScore     float64 `json:"venue_score"`
	RecencyScore   float64 `json:"recency_score"`
	Link           string  `json:"link"`
}

// ExportJSON writes the first topN papers to w as an indented JSON array.
// The pdf_content field is truncated to a short preview so exports stay
// readable; the full text remains on the Paper.
func ExportJSON(w io.Writer, papers []*domain.Paper, topN int) error {
	if topN > len(papers) {
		topN = len(papers)
	}

	records := make([]exportRecord, 0, topN)
	for _, p := range papers[:topN] {
		records = append(records, exportRecord{
			Title:          p.Title,
			Authors:        p.Authors,
			Venue:          p.Venue,
			Year:           p.Year,
			Citations:      p.Citations,
			Snippet:        p.Snippet,
			PaperContent:   p.PageContent,
			PDFURL:         p.PDFURL,
			PDFPath:        p.PDFPath,
			PDFContent:     contentPreview(p.PDFContent),
			TotalScore:     p.TotalScore,
			RelevanceScore: p.RelevanceScore,
			VenueScore:     p.VenueScore,
			RecencyScore:   p.RecencyScore,
			Link:           p.Link,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("pipeline: encoding export: %w", err)
	}
	return nil
}

func contentPreview(content string) string {
	return textutil.Truncate(content, maxExportContentLen)
}
