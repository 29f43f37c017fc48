// Package transport provides HTTP handlers for the portal widgets.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/listingdesk/internal/notify"
	"github.com/pendergraft/listingdesk/internal/portals/domain"
	"github.com/pendergraft/listingdesk/internal/publish"
)

// Service defines the portals service interface for HTTP transport.
type Service interface {
	ListPortals(ctx context.Context, listingID string) ([]domain.Row, error)
	Execute(ctx context.Context, listingID, portal, action string) (*publish.Outcome, error)
	OpenBoard(ctx context.Context, listingID string) (*domain.Board, error)
	GetBoard(ctx context.Context, boardID string) (*domain.Board, error)
	ToggleBoardRow(ctx context.Context, boardID, rowID string) (*domain.Board, error)
}

// Handler handles HTTP requests for portals.
type Handler struct {
	svc Service
}

// NewHandler creates a new portals HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers read-only portal routes under /listings/{id}.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/portals", h.handleList)
	r.Get("/region-portals/sessions/{sid}", h.handleGetBoard)
}

// RegisterWriteRoutes registers portal actions under /listings/{id}.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/portals/{portal}/actions", h.handleAction)
	r.Post("/region-portals/sessions", h.handleOpenBoard)
	r.Post("/region-portals/sessions/{sid}/rows/{rowId}/toggle", h.handleToggle)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	rows, err := h.svc.ListPortals(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, notes.Drain())
		return
	}
	writeJSON(w, http.StatusOK, PortalsResponse{Data: rows, Notifications: notes.Drain()})
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body", nil)
		return
	}
	var req ActionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON", nil)
		return
	}

	portal, err := url.PathUnescape(chi.URLParam(r, "portal"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid portal name", nil)
		return
	}

	ctx, notes := notify.Collect(r.Context())
	out, err := h.svc.Execute(ctx, chi.URLParam(r, "id"), portal, req.Action)
	if err != nil {
		writeDomainError(w, err, notes.Drain())
		return
	}
	writeJSON(w, http.StatusOK, ActionResponse{Outcome: out, Notifications: notes.Drain()})
}

func (h *Handler) handleOpenBoard(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	b, err := h.svc.OpenBoard(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, notes.Drain())
		return
	}
	writeJSON(w, http.StatusCreated, BoardResponse{Board: b, Notifications: notes.Drain()})
}

func (h *Handler) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	b, err := h.svc.GetBoard(ctx, chi.URLParam(r, "sid"))
	if err != nil {
		writeDomainError(w, err, notes.Drain())
		return
	}
	if b.ListingID != chi.URLParam(r, "id") {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Board not found", notes.Drain())
		return
	}
	writeJSON(w, http.StatusOK, BoardResponse{Board: b, Notifications: notes.Drain()})
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	b, err := h.svc.ToggleBoardRow(ctx, chi.URLParam(r, "sid"), chi.URLParam(r, "rowId"))
	if err != nil {
		writeDomainError(w, err, notes.Drain())
		return
	}
	writeJSON(w, http.StatusOK, BoardResponse{Board: b, Notifications: notes.Drain()})
}

func writeDomainError(w http.ResponseWriter, err error, notes []notify.Notification) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), notes)
	case errors.Is(err, domain.ErrInProgress):
		writeError(w, http.StatusConflict, "IN_PROGRESS", "A publish action is already running for this portal", notes)
	case errors.Is(err, domain.ErrBoardNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Board not found", notes)
	case errors.Is(err, domain.ErrRowNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Row not found", notes)
	case errors.Is(err, domain.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, "FETCH_FAILED", "Failed to reach the listing platform", notes)
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
	writeJSON(w, status, ErrorResponse{
		Error:         ErrorDetail{Code: code, Message: message},
		Notifications: notes,
	})
}
