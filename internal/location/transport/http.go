// Package transport provides the HTTP handler for the listing map widget.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/listingdesk/internal/location/domain"
)

// Service defines the location service interface for HTTP transport.
type Service interface {
	Markers(ctx context.Context, listingID string) ([]domain.Marker, error)
}

// Handler handles HTTP requests for listing locations.
type Handler struct {
	svc Service
}

// NewHandler creates a new location HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterReadRoutes registers the location route under /listings/{id}.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/location", h.handleMarkers)
}

func (h *Handler) handleMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := h.svc.Markers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		case errors.Is(err, domain.ErrFailed):
			writeError(w, http.StatusBadGateway, "PLATFORM_ERROR", "Error fetching listing location")
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mapMarkers":    markers,
		"notifications": []any{},
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
		"notifications": []any{},
	})
}
