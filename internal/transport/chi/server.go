// Package chi is the HTTP boundary: it validates inbound requests, runs the
// pipeline, and translates outcomes and error kinds into transport status
// codes. Internal error text never reaches the client in production.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/econsult/internal/domain"
	"github.com/kailas-cloud/econsult/internal/usecase/health"
	"github.com/kailas-cloud/econsult/internal/usecase/pipeline"
	"github.com/kailas-cloud/econsult/internal/usecase/settings"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Pipeline runs one retrieval request end to end.
type Pipeline interface {
	Run(ctx context.Context, q domain.Query) (pipeline.Outcome, error)
}

// SettingsService manages practice settings.
type SettingsService interface {
	Get(ctx context.Context) (settings.Settings, error)
	Update(ctx context.Context, defaultPrompts string) (settings.Settings, error)
	Reset(ctx context.Context) error
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) health.Report
}

// Server holds the HTTP handlers.
type Server struct {
	pipeline      Pipeline
	settings      SettingsService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(p Pipeline, s SettingsService, h HealthService, logger *zap.Logger) *Server {
	srv := &Server{
		pipeline: p,
		settings: s,
		health:   h,
		logger:   logger,
	}
	// Order matters: timeout/cancellation framing wraps the stage kind, so
	// the framing sentinels are matched first.
	srv.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout,
			"operation timed out - please try again"),
		sentinelHandler(domain.ErrCancelled, http.StatusServiceUnavailable, codeCancelled,
			"operation was cancelled"),
		sentinelHandler(domain.ErrEncoder, http.StatusServiceUnavailable, codeUnavailable,
			"embedding service unavailable"),
		sentinelHandler(domain.ErrDatabase, http.StatusServiceUnavailable, codeUnavailable,
			"document store unavailable"),
		sentinelHandler(domain.ErrRelevancy, http.StatusServiceUnavailable, codeUnavailable,
			"language model unavailable"),
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, codeInternal,
			"internal error"),
		sentinelHandler(domain.ErrSummary, http.StatusInternalServerError, codeInternal,
			"internal error"),
		sentinelHandler(domain.ErrVectorSearch, http.StatusInternalServerError, codeInternal,
			"internal error"),
	}
	return srv
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	q, err := domain.NewQuery(req.Query, req.DoctorInstructions)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	out, err := s.pipeline.Run(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFromOutcome(req, out))
}

// GetSettings handles GET /api/settings.
func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.Get(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{
		Success:  true,
		Message:  "settings retrieved",
		Settings: settingsToPayload(cfg),
	})
}

// UpdateSettings handles POST /api/settings.
func (s *Server) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	cfg, err := s.settings.Update(r.Context(), req.DefaultSystemPrompts)
	if err != nil {
		if errors.Is(err, domain.ErrDatabase) {
			s.handleDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{
		Success:  true,
		Message:  "settings updated",
		Settings: settingsToPayload(cfg),
	})
}

// ResetSettings handles DELETE /api/settings.
func (s *Server) ResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.Reset(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{
		Success: true,
		Message: "settings reset to defaults",
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("pipeline error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("unhandled internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// sentinelHandler returns an errorHandler that matches a single sentinel
// error and writes a fixed, safe client message.
func sentinelHandler(sentinel error, status int, code, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
