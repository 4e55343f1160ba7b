// Package server exposes the suggestion engine and history log over a
// local HTTP API for address-bar clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/runnerr0/omnibar/internal/history"
	logpkg "github.com/runnerr0/omnibar/internal/logger"
	"github.com/runnerr0/omnibar/internal/metrics"
	"github.com/runnerr0/omnibar/internal/storage"
	"github.com/runnerr0/omnibar/internal/suggest"
)

// Suggester answers autocomplete lookups.
type Suggester interface {
	Query(text string) []suggest.Entry
	TitleFor(url string) *string
	Stats() suggest.Stats
}

// VisitRecorder appends page visits to history.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, pageURL, pageTitle string) (*storage.HistoryRecord, error)
}

// HistoryEditor reads and deletes persisted visits.
type HistoryEditor interface {
	GetVisit(ctx context.Context, id string) (*storage.HistoryRecord, error)
	DeleteVisit(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) (int64, error)
}

// Options configures a Server.
type Options struct {
	Version    string
	MaxResults int
}

// Server holds the HTTP handlers.
type Server struct {
	suggester Suggester
	recorder  VisitRecorder
	editor    HistoryEditor
	opts      Options
	logger    *zap.Logger
}

// New creates a Server. recorder and editor may be nil when no history
// store is available; the corresponding routes then answer 503.
func New(s Suggester, recorder VisitRecorder, editor HistoryEditor, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 20
	}
	return &Server{
		suggester: s,
		recorder:  recorder,
		editor:    editor,
		opts:      opts,
		logger:    logger,
	}
}

// Handler builds the chi router with the middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/suggest", s.Suggest)
	r.Get("/title", s.Title)
	r.Post("/visits", s.RecordVisit)
	r.Get("/visits/{id}", s.GetVisit)
	r.Delete("/visits/{id}", s.DeleteVisit)
	r.Delete("/history", s.ClearHistory)
	r.Get("/status", s.Status)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

type entryResponse struct {
	URL   string  `json:"url"`
	Title *string `json:"title"`
}

type suggestResponse struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Total   int             `json:"total"`
	Results []entryResponse `json:"results"`
}

// Suggest handles GET /suggest?q=&limit=. Without limit at most
// MaxResults entries are returned; limit=0 returns every match, as the
// CLI's --limit 0 does.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	limit := s.opts.MaxResults
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries := s.suggester.Query(q)
	total := len(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	resp := suggestResponse{
		Query:   q,
		Count:   len(entries),
		Total:   total,
		Results: make([]entryResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Results[i] = entryResponse{URL: e.URL, Title: e.Title}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Title handles GET /title?url=.
func (s *Server) Title(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if u == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "url is required")
		return
	}
	writeJSON(w, http.StatusOK, entryResponse{URL: u, Title: s.suggester.TitleFor(u)})
}

type visitRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type visitResponse struct {
	Recorded  bool   `json:"recorded"`
	ID        string `json:"id,omitempty"`
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	VisitDate string `json:"visit_date,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// RecordVisit handles POST /visits.
func (s *Server) RecordVisit(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "history store unavailable")
		return
	}

	var req visitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "url is required")
		return
	}

	rec, err := s.recorder.RecordVisit(r.Context(), req.URL, req.Title)
	if errors.Is(err, history.ErrNotRecorded) {
		writeJSON(w, http.StatusAccepted, visitResponse{Recorded: false, URL: req.URL, Reason: err.Error()})
		return
	}
	if err != nil {
		logpkg.FromContext(r.Context()).Error("record visit", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, visitResponse{
		Recorded:  true,
		ID:        rec.ID,
		URL:       rec.PageURL,
		Title:     rec.PageTitle,
		VisitDate: rec.VisitDate.UTC().Format(time.RFC3339),
	})
}

// GetVisit handles GET /visits/{id}.
func (s *Server) GetVisit(w http.ResponseWriter, r *http.Request) {
	if s.editor == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "history store unavailable")
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.editor.GetVisit(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "visit_not_found", "visit "+id+" not found")
		return
	}
	if err != nil {
		logpkg.FromContext(r.Context()).Error("get visit", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, visitResponse{
		Recorded:  true,
		ID:        rec.ID,
		URL:       rec.PageURL,
		Title:     rec.PageTitle,
		VisitDate: rec.VisitDate.UTC().Format(time.RFC3339),
	})
}

// DeleteVisit handles DELETE /visits/{id}. The engine drops the URL on
// the rebuild the deletion triggers, unless another visit still holds it.
func (s *Server) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	if s.editor == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "history store unavailable")
		return
	}

	id := chi.URLParam(r, "id")
	err := s.editor.DeleteVisit(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "visit_not_found", "visit "+id+" not found")
		return
	}
	if err != nil {
		logpkg.FromContext(r.Context()).Error("delete visit", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearHistory handles DELETE /history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.editor == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "history store unavailable")
		return
	}

	n, err := s.editor.ClearHistory(r.Context())
	if err != nil {
		logpkg.FromContext(r.Context()).Error("clear history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

type statusResponse struct {
	Version string `json:"version"`
	State   string `json:"state"`
	Entries int    `json:"entries"`
	Corpus  int    `json:"corpus"`
	History int    `json:"history"`
}

// Status handles GET /status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	st := s.suggester.Stats()
	writeJSON(w, http.StatusOK, statusResponse{
		Version: s.opts.Version,
		State:   st.State.String(),
		Entries: st.Entries,
		Corpus:  st.Corpus,
		History: st.History,
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
