// Package transport provides HTTP handlers for the listing sub-status widget.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/listingdesk/internal/notify"
	"github.com/pendergraft/listingdesk/internal/status/domain"
)

// Service defines the status service interface for HTTP transport.
type Service interface {
	Get(ctx context.Context, listingID string) (*domain.Progress, error)
	Set(ctx context.Context, listingID, label string) (*domain.Progress, error)
}

// SetRequest is the body of PUT /listings/{id}/status.
type SetRequest struct {
	Label string `json:"label"`
}

// Handler handles HTTP requests for the sub-status widget.
type Handler struct {
	svc Service
}

// NewHandler creates a new status HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers read-only status routes under /listings/{id}.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/status", h.handleGet)
}

// RegisterWriteRoutes registers status mutations under /listings/{id}.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Put("/status", h.handleSet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	p, err := h.svc.Get(ctx, chi.URLParam(r, "id"))
	h.respond(w, p, err, notes.Drain())
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body", nil)
		return
	}
	var req SetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON", nil)
		return
	}

	ctx, notes := notify.Collect(r.Context())
	p, err := h.svc.Set(ctx, chi.URLParam(r, "id"), req.Label)
	h.respond(w, p, err, notes.Drain())
}

func (h *Handler) respond(w http.ResponseWriter, p *domain.Progress, err error, notes []notify.Notification) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"status": p, "notifications": notes})
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), notes)
	case errors.Is(err, domain.ErrFailed) && p != nil:
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"status":        p,
			"error":         map[string]any{"code": "PLATFORM_ERROR", "message": "Error updating Listing Sub status"},
			"notifications": notes,
		})
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error", notes)
	}
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
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
		"notifications": notes,
	})
}
