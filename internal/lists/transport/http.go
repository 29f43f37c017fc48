// Package transport provides HTTP handlers for the list-view widgets.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/listingdesk/internal/lists/domain"
	"github.com/pendergraft/listingdesk/internal/notify"
)

// Service defines the list-view service interface for HTTP transport.
type Service interface {
	Open(ctx context.Context, view string) (*domain.Session, error)
	Get(ctx context.Context, view, id string) (*domain.Session, error)
	SetFilter(ctx context.Context, view, id, key, value string) (*domain.Session, error)
	ResetFilters(ctx context.Context, view, id string) (*domain.Session, error)
	SetPageSize(ctx context.Context, view, id string, size int) (*domain.Session, error)
	NextPage(ctx context.Context, view, id string) (*domain.Session, error)
	PreviousPage(ctx context.Context, view, id string) (*domain.Session, error)
	Close(ctx context.Context, view, id string) error
}

// Handler handles HTTP requests for list-view sessions.
type Handler struct {
	svc Service
}

// NewHandler creates a new list-view HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers read-only session routes.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/{view}/sessions/{id}", h.handleGet)
}

// RegisterWriteRoutes registers session mutations.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/{view}/sessions", h.handleOpen)
	r.Delete("/{view}/sessions/{id}", h.handleClose)
	r.Put("/{view}/sessions/{id}/filters/{key}", h.handleSetFilter)
	r.Delete("/{view}/sessions/{id}/filters/{key}", h.handleRemoveFilter)
	r.Delete("/{view}/sessions/{id}/filters", h.handleResetFilters)
	r.Put("/{view}/sessions/{id}/page-size", h.handleSetPageSize)
	r.Post("/{view}/sessions/{id}/next", h.handleNext)
	r.Post("/{view}/sessions/{id}/previous", h.handlePrevious)
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	sess, err := h.svc.Open(ctx, chi.URLParam(r, "view"))
	h.respond(w, http.StatusCreated, sess, err, notes)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	sess, err := h.svc.Get(ctx, chi.URLParam(r, "view"), chi.URLParam(r, "id"))
	h.respond(w, http.StatusOK, sess, err, notes)
}

func (h *Handler) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req SetFilterRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, notes := notify.Collect(r.Context())
	sess, err := h.svc.SetFilter(ctx, chi.URLParam(r, "view"), chi.URLParam(r, "id"), chi.URLParam(r, "key"), req.Value)
	h.respond(w, http.StatusOK, sess, err, notes)
}

func (h *Handler) handleRemoveFilter(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	sess, err := h.svc.SetFilter(ctx, chi.URLParam(r, "view"), chi.URLParam(r, "id"), chi.URLParam(r, "key"), "")
	h.respond(w, http.StatusOK, sess, err, notes)
}

func (h *Handler) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	sess, err := h.svc.ResetFilters(ctx, chi.URLParam(r, "view"), chi.URLParam(r, "id"))
	h.respond(w, http.StatusOK, sess, err, notes)
}

func (h *Handler) handleSetPageSize(w http.ResponseWriter, r *http.Request) {
	var req SetPageSizeRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, notes := notify.Collect(r.Context())
	sess, err := h.svc.SetPageSize(ctx, chi.URLParam(r, "view"), chi.URLParam(r, "id"), req.PageSize)
	h.respond(w, http.StatusOK, sess, err, notes)
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	sess, err := h.svc.NextPage(ctx, chi.URLParam(r, "view"), chi.URLParam(r, "id"))
	h.respond(w, http.StatusOK, sess, err, notes)
}

func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	sess, err := h.svc.PreviousPage(ctx, chi.URLParam(r, "view"), chi.URLParam(r, "id"))
	h.respond(w, http.StatusOK, sess, err, notes)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Close(r.Context(), chi.URLParam(r, "view"), chi.URLParam(r, "id"))
	if err != nil {
		status, code, msg := classify(err)
		writeError(w, status, code, msg, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respond writes the session with the request's notifications. A failed fetch still
// carries the session so the host can keep rendering it.
func (h *Handler) respond(w http.ResponseWriter, status int, sess *domain.Session, err error, notes *notify.Collector) {
	if err == nil {
		writeJSON(w, status, SessionResponse{Session: sess, Notifications: notes.Drain()})
		return
	}

	status, code, msg := classify(err)
	if sess != nil {
		writeJSON(w, status, SessionResponse{
			Session:       sess,
			Error:         &ErrorDetail{Code: code, Message: msg},
			Notifications: notes.Drain(),
		})
		return
	}
	writeError(w, status, code, msg, notes.Drain())
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownView):
		return http.StatusNotFound, "NOT_FOUND", "View not found"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Session not found"
	case errors.Is(err, domain.ErrInvalidPageSize), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST", err.Error()
	case errors.Is(err, domain.ErrFetchFailed):
		return http.StatusBadGateway, "FETCH_FAILED", "Failed to fetch records"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error"
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body", nil)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON", nil)
		return false
	}
	return true
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, notes []notify.Notification) {
	if notes == nil {
		notes = []notify.Notification{}
	}
	writeJSON(w, status, ErrorResponse{
		Error:         ErrorDetail{Code: code, Message: message},
		Notifications: notes,
	})
}
