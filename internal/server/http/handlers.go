package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/scholarpipe/scholarpipe/internal/domain"
	"github.com/scholarpipe/scholarpipe/internal/pipeline"
	"github.com/scholarpipe/scholarpipe/internal/scoring"
)

// Validation constants.
const (
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
	maxNumResults      = 100
	maxTopK            = 20
)

// weightsRequest overrides the default scoring weights.
type weightsRequest struct {
	Relevance float64 `json:"relevance" validate:"gte=0"`
	Venue     float64 `json:"venue" validate:"gte=0"`
	Recency   float64 `json:"recency" validate:"gte=0"`
}

// searchRequest is the JSON request body for POST /api/v1/papers/search.
type searchRequest struct {
	Query        string          `json:"query" validate:"required,min=3"`
	Field        string          `json:"field" validate:"omitempty,oneof=computer_science biology physics chemistry"`
	NumResults   int             `json:"num_results" validate:"gte=0"`
	Weights      *weightsRequest `json:"weights,omitempty"`
	FetchContent bool            `json:"fetch_content"`
}

// runRequest is the JSON request body for POST /api/v1/pipeline/runs.
type runRequest struct {
	searchRequest
	TopK int `json:"top_k" validate:"gte=0"`
}

// searchResponse is the JSON response for a search.
type searchResponse struct {
	Query  string          `json:"query"`
	Count  int             `json:"count"`
	Papers []*domain.Paper `json:"papers"`
}

// runResponse is the JSON response for a pipeline run.
type runResponse struct {
	RunID      string          `json:"run_id"`
	Query      string          `json:"query"`
	Count      int             `json:"count"`
	Downloaded int             `json:"downloaded"`
	Papers     []*domain.Paper `json:"papers"`
}

// searchPapers handles POST /api/v1/papers/search. It searches, scores, and
// ranks papers without touching any PDFs.
func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	papers, err := s.runner.SearchAndRank(r.Context(), s.pipelineRequest(req, 0))
	if err != nil {
		s.writeSearchError(w, req.Query, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:  req.Query,
		Count:  len(papers),
		Papers: papers,
	})
}

// runPipeline handles POST /api/v1/pipeline/runs. It runs the full pipeline
// including PDF download for the top-ranked papers.
func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if req.TopK > maxTopK {
		writeError(w, http.StatusBadRequest, "top_k is limited to 20")
		return
	}

	result, err := s.runner.Run(r.Context(), s.pipelineRequest(req.searchRequest, req.TopK))
	if err != nil {
		s.writeSearchError(w, req.Query, err)
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		RunID:      result.RunID,
		Query:      req.Query,
		Count:      len(result.Papers),
		Downloaded: len(result.Downloaded),
		Papers:     result.Papers,
	})
}

// decodeAndValidate reads the request body into dst and validates it,
// writing the error response itself on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// pipelineRequest maps an API request onto a pipeline request.
func (s *Server) pipelineRequest(req searchRequest, topK int) pipeline.Request {
	numResults := req.NumResults
	if numResults == 0 || numResults > maxNumResults {
		numResults = maxNumResults
	}

	return pipeline.Request{
		Query:        strings.TrimSpace(req.Query),
		Field:        req.Field,
		NumResults:   numResults,
		TopK:         topK,
		FetchContent: req.FetchContent,
		Weights:      req.Weights.Weights(),
	}
}

// writeSearchError maps pipeline errors onto HTTP status codes.
func (s *Server) writeSearchError(w http.ResponseWriter, query string, err error) {
	s.logger.Error().Err(err).Str("query", query).Msg("pipeline request failed")

	var apiErr *domain.ExternalAPIError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr), errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusBadGateway, "upstream search provider failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// validationMessage turns a validator error into a readable message.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "Error:"); i >= 0 {
		msg = msg[i+len("Error:"):]
	}
	return strings.TrimSpace(msg)
}

// Weights converts the request override into scoring weights; a nil request
// yields zero weights, which the engine replaces with its defaults.
func (wr *weightsRequest) Weights() scoring.Weights {
	if wr == nil {
		return scoring.Weights{}
	}
	return scoring.Weights{
		Relevance: wr.Relevance,
		Venue:     wr.Venue,
		Recency:   wr.Recency,
	}
}
