// Package httpserver provides the HTTP REST API for the scholar pipeline.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/scholarpipe/scholarpipe/internal/domain"
	"github.com/scholarpipe/scholarpipe/internal/pipeline"
)

// PipelineRunner is the pipeline surface the server exposes. Implemented by
// pipeline.Driver.
type PipelineRunner interface {
	SearchAndRank(ctx context.Context, req pipeline.Request) ([]*domain.Paper, error)
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	MetricsPath     string
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	runner     PipelineRunner
	validate   *validator.Validate
	logger     zerolog.Logger

	metricsEnabled bool
	metricsPath    string
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, runner PipelineRunner, logger zerolog.Logger) *Server {
	s := &Server{
		runner:         runner,
		validate:       validator.New(),
		logger:         logger.With().Str("component", "http-server").Logger(),
		metricsEnabled: cfg.MetricsEnabled,
		metricsPath:    cfg.MetricsPath,
	}
	if s.metricsPath == "" {
		s.metricsPath = "/metrics"
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	if s.metricsEnabled {
		r.Get(s.metricsPath, promhttp.Handler().ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)
		r.Post("/papers/search", s.searchPapers)
		r.Post("/pipeline/runs", s.runPipeline)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler returns readiness status. The pipeline holds no
// connections, so readiness mirrors liveness.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
