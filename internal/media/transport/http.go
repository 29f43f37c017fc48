// Package transport provides HTTP handlers for the media widgets.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/listingdesk/internal/media/domain"
	"github.com/pendergraft/listingdesk/internal/notify"
)

// Service defines the media service interface for HTTP transport.
type Service interface {
	List(ctx context.Context, listingID string) ([]domain.Image, error)
	Upload(ctx context.Context, listingID string, files []domain.File) (*domain.UploadResult, error)
	Move(ctx context.Context, listingID string, from, to int) ([]domain.Image, error)
	HeroImage(ctx context.Context, listingID string) string
}

// UploadRequest is the body of POST /listings/{id}/media.
type UploadRequest struct {
	Files []domain.File `json:"files"`
}

// MoveRequest is the body of POST /listings/{id}/media/reorder. Positions are 0-based.
type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Handler handles HTTP requests for media.
type Handler struct {
	svc Service
}

// NewHandler creates a new media HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers read-only media routes under /listings/{id}.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/media", h.handleList)
	r.Get("/hero-image", h.handleHero)
}

// RegisterWriteRoutes registers media mutations under /listings/{id}.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/media", h.handleUpload)
	r.Post("/media/reorder", h.handleMove)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, notes := notify.Collect(r.Context())
	images, err := h.svc.List(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, notes.Drain())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"images":        images,
		"notifications": notes.Drain(),
	})
}

func (h *Handler) handleHero(w http.ResponseWriter, r *http.Request) {
	url := h.svc.HeroImage(r.Context(), chi.URLParam(r, "id"))
	var body any
	if url != "" {
		body = url
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"imageUrl":      body,
		"notifications": []notify.Notification{},
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, notes := notify.Collect(r.Context())
	res, err := h.svc.Upload(ctx, chi.URLParam(r, "id"), req.Files)
	if err != nil {
		writeDomainError(w, err, notes.Drain())
		return
	}
	status := http.StatusOK
	if len(res.Uploaded) == 0 {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]any{
		"result":        res,
		"notifications": notes.Drain(),
	})
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, notes := notify.Collect(r.Context())
	images, err := h.svc.Move(ctx, chi.URLParam(r, "id"), req.From, req.To)
	if err != nil && images == nil {
		writeDomainError(w, err, notes.Drain())
		return
	}
	status := http.StatusOK
	body := map[string]any{"images": images}
	if err != nil {
		status = http.StatusBadGateway
		body["error"] = map[string]any{"code": "PLATFORM_ERROR", "message": "Failed to update order"}
	}
	body["notifications"] = notes.Drain()
	writeJSON(w, status, body)
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

func writeDomainError(w http.ResponseWriter, err error, notes []notify.Notification) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), notes)
	case errors.Is(err, domain.ErrFailed):
		writeError(w, http.StatusBadGateway, "PLATFORM_ERROR", err.Error(), notes)
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
