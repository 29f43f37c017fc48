// Package domain contains the listing map widget.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pendergraft/listingdesk/internal/validation"
	"github.com/pendergraft/listingdesk/pkg/client"
)

// Domain errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrFailed       = errors.New("location request failed")
)

// Address is a marker's postal location.
type Address struct {
	City       string `json:"City"`
	Country    string `json:"Country"`
	PostalCode string `json:"PostalCode"`
	State      string `json:"State"`
	Street     string `json:"Street"`
}

// Marker is one map marker.
type Marker struct {
	Location Address `json:"location"`
}

// Platform is the platform client subset used by the map widget.
type Platform interface {
	FetchListing(ctx context.Context, listingID string) (client.Record, error)
}

// Service defines the location service interface.
type Service interface {
	// Markers returns the single marker of a listing's address.
	Markers(ctx context.Context, listingID string) ([]Marker, error)
}

type service struct {
	platform Platform
	logger   *slog.Logger
}

// NewService creates a new location service.
func NewService(platform Platform, logger *slog.Logger) Service {
	return &service{platform: platform, logger: logger}
}

func (s *service) Markers(ctx context.Context, listingID string) ([]Marker, error) {
	if err := validation.ValidateRecordID(listingID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	rec, err := s.platform.FetchListing(ctx, listingID)
	if err != nil {
		s.logger.Error("fetching listing address", "listing", listingID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFailed, err)
	}
	return []Marker{{Location: Address{
		City:       rec.String("City__c"),
		Country:    rec.String("Country__c"),
		PostalCode: rec.String("os_PostalCode_pb__c"),
		State:      rec.String("os_State_pb__c"),
		Street:     rec.String("os_Street_pb__c"),
	}}}, nil
}
