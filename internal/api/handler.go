// Package api serves the stateless JSON API: one request uploads a matrix,
// runs the pipeline and returns the results.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"rnaseqde/app"
	"rnaseqde/internal"
	"rnaseqde/internal/errors"
	"rnaseqde/internal/metrics"
	"rnaseqde/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultRunsLimit = 20

// Handler routes the JSON API
type Handler struct {
	router         chi.Router
	service        *app.DifferentialExpressionService
	reader         ports.MatrixReader
	metrics        *metrics.Metrics
	logger         *internal.Logger
	maxUploadBytes int64
}

// NewHandler wires the API routes. metrics may be nil.
func NewHandler(service *app.DifferentialExpressionService, reader ports.MatrixReader, m *metrics.Metrics, logger *internal.Logger, maxUploadBytes int64) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 64 << 20
	}
	h := &Handler{
		router:         chi.NewRouter(),
		service:        service,
		reader:         reader,
		metrics:        m,
		logger:         logger.Named("API"),
		maxUploadBytes: maxUploadBytes,
	}
	h.setupMiddleware()
	h.setupRoutes()
	return h
}

func (h *Handler) setupMiddleware() {
	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.Logger)
	h.router.Use(middleware.Recoverer)
}

func (h *Handler) setupRoutes() {
	h.router.Get("/healthz", h.handleHealth)
	h.router.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", h.handleAnalyze)
		r.Get("/runs", h.handleRuns)
	})
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, errors.ValidationError(fmt.Sprintf("limit must be a non-negative integer, got %q", raw)))
			return
		}
		limit = n
	}

	runs, err := h.service.RecentRuns(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, errors.Wrap(err, "failed to list runs"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs, "count": len(runs)})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "code": errors.GetCode(err)})
}
