// Package domain contains the list-view widget business logic.
package domain

import (
	"errors"
	"time"

	"github.com/pendergraft/listingdesk/internal/listview"
	"github.com/pendergraft/listingdesk/pkg/client"
)

// Domain errors
var (
	ErrUnknownView     = errors.New("unknown view")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidPageSize = errors.New("invalid page size")
	ErrFetchFailed     = errors.New("fetch failed")
	ErrInvalidInput    = errors.New("invalid input")
)

// View names
const (
	ViewListings = "listings"
	ViewLeads    = "leads"
)

// Definition describes one list widget.
type Definition struct {
	Name   string
	Source client.Source
	// ExcludeFilterFields are metadata fields not offered as filters.
	ExcludeFilterFields []string
}

// Definitions returns the built-in list widgets: the listing manager and the inquiry lead pool.
func Definitions() []Definition {
	return []Definition{
		// OwnerId is a record picker in the listing manager, not a filter input
		{Name: ViewListings, Source: client.SourceListings, ExcludeFilterFields: []string{"OwnerId"}},
		{Name: ViewLeads, Source: client.SourceInquiries},
	}
}

// Options parameterizes every view created by the service.
type Options struct {
	RecordLimit     int
	PageSizes       []int
	DefaultPageSize int
	SessionTTL      time.Duration
	// StateRetention is how long persisted view state outlives its last update.
	StateRetention time.Duration
}

// Session is the render model of one list-view session.
type Session struct {
	ID string `json:"id"`
	listview.Snapshot
}
