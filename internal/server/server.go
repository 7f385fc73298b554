// Copyright Tales Pardini, 2026. All rights reserved.

// Package server exposes the refinement engine over HTTP as a thin JSON
// layer. It holds no domain logic: requests are validated, handed to the
// engine, and the engine's result contract is serialized back.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pardinithales/pubmed-agent/internal/generate"
	"github.com/pardinithales/pubmed-agent/internal/pubmed"
	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// Engine is the refinement pipeline the server fronts. Implemented by
// agent.Agent; tests supply mocks.
type Engine interface {
	Run(ctx context.Context, picottText string, maxIterations int) (types.RefineResult, error)
}

// SearchRequest is the POST /api/v1/search request body.
type SearchRequest struct {
	// PicottText is the clinical question in PICOTT format.
	PicottText string `json:"picott_text"`

	// MaxIterations optionally overrides the configured iteration
	// budget; zero keeps the default.
	MaxIterations int `json:"max_iterations,omitempty"`
}

// SearchResponse is the POST /api/v1/search response body.
type SearchResponse struct {
	// RunID uniquely identifies this refinement run; the same value
	// appears in the server logs.
	RunID string `json:"run_id"`

	OriginalQuery   string            `json:"original_query"`
	BestPubmedQuery string            `json:"best_pubmed_query"`
	Iterations      []types.Iteration `json:"iterations"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// Server handles HTTP requests for the agent.
type Server struct {
	engine Engine
	logger *zap.Logger
}

// New builds a server around an engine.
func New(engine Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: engine, logger: logger}
}

// Router assembles the chi router with request-ID propagation, a
// canonical request log line, and JSON panic recovery.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(s.requestLog)
	r.Use(s.jsonRecoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/v1/search", s.handleSearch)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch runs the full pipeline synchronously. The caller either
// receives a complete {original_query, best_pubmed_query, iterations}
// result or one explicit error naming the failed stage, never a
// partially filled body.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.PicottText == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "picott_text is required"})
		return
	}
	if req.MaxIterations < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "max_iterations must be positive"})
		return
	}

	runID := uuid.NewString()
	result, err := s.engine.Run(r.Context(), req.PicottText, req.MaxIterations)
	if err != nil {
		status := http.StatusInternalServerError
		var backendErr *pubmed.BackendError
		switch {
		case errors.Is(err, generate.ErrNotConfigured):
			status = http.StatusUnprocessableEntity
		case errors.As(err, &backendErr):
			status = http.StatusBadGateway
		}
		s.logger.Error("refinement run failed",
			zap.String("run_id", runID),
			zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("refinement run completed",
		zap.String("run_id", runID),
		zap.String("best_query", result.BestQuery),
		zap.Int("iterations", len(result.Iterations)),
	)
	writeJSON(w, http.StatusOK, SearchResponse{
		RunID:           runID,
		OriginalQuery:   req.PicottText,
		BestPubmedQuery: result.BestQuery,
		Iterations:      result.Iterations,
	})
}

// requestLog emits one canonical log line per request.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chiMiddleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http_request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("response_bytes", ww.BytesWritten()),
		)
	})
}

// jsonRecoverer converts panics into a JSON 500 instead of a plain-text
// stack trace.
func (s *Server) jsonRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				s.logger.Error("panic recovered",
					zap.Any("panic", rvr),
					zap.Stack("stacktrace"),
				)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
