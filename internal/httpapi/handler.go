// Package httpapi exposes the record store read and delete operations over
// HTTP. Drafts stay in-process and are not reachable from here.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"travelbook/internal/geocode"
	"travelbook/pkg/domain"
)

// Records is the part of the record store served over HTTP.
type Records interface {
	List(ctx context.Context) ([]domain.Record, error)
	Get(ctx context.Context, id string) (domain.Record, error)
	Delete(ctx context.Context, id string) error
}

// Describer resolves display places for records.
type Describer interface {
	Describe(ctx context.Context, rec domain.Record) geocode.Place
}

// Handler serves the record routes.
type Handler struct {
	records Records
	places  Describer
	logger  *slog.Logger
}

// New returns a handler. places may be nil, in which case place lookups
// answer with an empty place.
func New(records Records, places Describer, logger *slog.Logger) *Handler {
	return &Handler{records: records, places: places, logger: logger}
}

// Register mounts the record routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/records", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDelete)
		r.Get("/{id}/place", h.handlePlace)
	})
}

// NewRouter builds the full router including /metrics served from gatherer.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	h.Register(r)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := h.records.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePlace(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var place geocode.Place
	if h.places != nil {
		place = h.places.Describe(r.Context(), rec)
	}
	writeJSON(w, http.StatusOK, place)
}

// writeError maps the record store error taxonomy onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	var corrupt *domain.CorruptStateError
	var storage *domain.StorageError
	switch {
	case errors.Is(err, domain.ErrMissing):
		status, code = http.StatusNotFound, "not_found"
	case errors.As(err, &corrupt):
		status, code = http.StatusInternalServerError, "corrupt_state"
	case errors.As(err, &storage):
		status, code = http.StatusServiceUnavailable, "storage_unavailable"
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "code", code, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
