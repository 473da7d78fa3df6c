// Package serpapi provides a client for the Google Scholar engine of the
// SerpApi search service.
//
// The client implements the scholar.Provider interface: it pages through
// Scholar results in fixed-size batches and normalizes each raw organic
// result into a domain.Paper, tolerating missing or malformed fields.
//
// API documentation: https://serpapi.com/google-scholar-api
package serpapi

// SearchResponse represents one page of results from the SerpApi Google
// Scholar endpoint. Absence of OrganicResults signals exhaustion, not an
// error.
type SearchResponse struct {
	// OrganicResults contains the scholarly results for this page.
	OrganicResults []OrganicResult `json:"organic_results"`

	// Error is the error message SerpApi returns in the body of failed
	// requests.
	Error string `json:"error,omitempty"`
}

// OrganicResult represents a single raw Scholar result record.
type OrganicResult struct {
	// Title is the paper title.
	Title string `json:"title"`

	// PublicationInfo carries the free-text publication summary
	// ("authors - venue, year - publisher").
	PublicationInfo PublicationInfo `json:"publication_info"`

	// InlineLinks carries auxiliary links, including the cited-by count.
	InlineLinks InlineLinks `json:"inline_links"`

	// Snippet is the result snippet.
	Snippet string `json:"snippet"`

	// Link is the landing-page URL.
	Link string `json:"link"`
}

// PublicationInfo holds the publication summary line of a result.
type PublicationInfo struct {
	Summary string `json:"summary"`
}

// InlineLinks holds auxiliary result links.
type InlineLinks struct {
	CitedBy CitedBy `json:"cited_by"`
}

// CitedBy holds the citation count of a result.
type CitedBy struct {
	Total int `json:"total"`
}
