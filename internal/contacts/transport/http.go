// Package transport provides HTTP handlers for the contact creator.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/listingdesk/internal/contacts/domain"
	"github.com/pendergraft/listingdesk/internal/notify"
)

// Service defines the contacts service interface for HTTP transport.
type Service interface {
	Fields(ctx context.Context) []string
	Create(ctx context.Context, fields map[string]any) (*domain.Result, error)
}

// CreateRequest is the body of POST /contacts.
type CreateRequest struct {
	Fields map[string]any `json:"fields"`
}

// Handler handles HTTP requests for contacts.
type Handler struct {
	svc Service
}

// NewHandler creates a new contacts HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers read-only contact routes.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/fields", h.handleFields)
}

// RegisterWriteRoutes registers contact creation.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
}

func (h *Handler) handleFields(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	fields := h.svc.Fields(ctx)
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":        fields,
		"notifications": notes.Drain(),
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body", nil)
		return
	}
	var req CreateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON", nil)
		return
	}
	if len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "fields are required", nil)
		return
	}

	ctx, notes := notify.Collect(r.Context())
	res, err := h.svc.Create(ctx, req.Fields)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), notes.Drain())
		case errors.Is(err, domain.ErrFailed):
			writeError(w, http.StatusBadGateway, "PLATFORM_ERROR", "Failed to create contact", notes.Drain())
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error", notes.Drain())
		}
		return
	}

	status := http.StatusCreated
	if len(res.Duplicates) > 0 {
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]any{
		"result":        res,
		"notifications": notes.Drain(),
	})
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
