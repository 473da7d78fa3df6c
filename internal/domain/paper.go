// Package domain defines the core data model and error taxonomy for the
// scholarly search and PDF-acquisition pipeline.
package domain

const (
	// MaxPDFContentLen is the maximum number of characters of extracted PDF
	// text retained on a Paper.
	MaxPDFContentLen = 50000

	// MaxPageContentLen is the maximum number of characters of scraped
	// landing-page text retained on a Paper.
	MaxPageContentLen = 10000
)

// Paper is the normalized record of one discovered academic work, carrying
// its search metadata, heuristic scores, and PDF-acquisition state.
//
// A Paper is created by the search provider's record parser, scored in place
// by the scoring engine, and mutated by the PDF locator (PDFURL) and the
// acquirer (PDFPath, PDFContent). Papers are owned by the pipeline run that
// created them and are not shared across runs.
type Paper struct {
	// Title is the paper title. May be empty when the provider record
	// carried no title.
	Title string `json:"title"`

	// Authors is the free-text author segment of the provider's
	// publication summary. Possibly empty.
	Authors string `json:"authors"`

	// Year is the 4-digit publication year extracted from the publication
	// summary, or the current calendar year when none was found.
	Year int `json:"year"`

	// Venue is the free-text publication outlet. Possibly empty.
	Venue string `json:"venue"`

	// Citations is the cited-by count reported by the provider. Never negative.
	Citations int `json:"citations"`

	// Snippet is the provider's result snippet.
	Snippet string `json:"snippet"`

	// Link is the landing-page URL and the key for subsequent PDF lookup.
	Link string `json:"link"`

	// PageContent is optional scraped landing-page text, capped at
	// MaxPageContentLen characters.
	PageContent string `json:"paper_content,omitempty"`

	// PDFURL is the resolved direct PDF URL. Empty means unresolved.
	PDFURL string `json:"pdf_url,omitempty"`

	// PDFPath is the local filesystem path of the downloaded PDF.
	// Set only after a successful download.
	PDFPath string `json:"pdf_path,omitempty"`

	// PDFContent is the extracted PDF text, capped at MaxPDFContentLen
	// characters. Non-empty only after successful extraction.
	PDFContent string `json:"pdf_content,omitempty"`

	// Scores are zero until the scoring engine runs. Each component score
	// is clamped to [0,1]; TotalScore is a weighted sum whose ceiling is
	// the sum of the weights.
	RelevanceScore float64 `json:"relevance_score"`
	VenueScore     float64 `json:"venue_score"`
	RecencyScore   float64 `json:"recency_score"`
	TotalScore     float64 `json:"total_score"`
}

// HasPDF reports whether the paper's PDF has been downloaded to disk.
func (p *Paper) HasPDF() bool {
	return p.PDFPath != ""
}
