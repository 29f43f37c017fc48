// Package domain contains the listing sub-status progress widget.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/pendergraft/listingdesk/internal/notify"
	"github.com/pendergraft/listingdesk/internal/observability/metrics"
	"github.com/pendergraft/listingdesk/internal/validation"
)

// FieldSubStatus is the listing field holding the sub-status label.
const FieldSubStatus = "Listing_Sub_Status__c"

// UnknownStep is the step value of a status that maps to no step.
const UnknownStep = "0"

// Step classes.
const (
	ClassCompleted = "completed"
	ClassCurrent   = "current"
	ClassUpcoming  = "upcoming"
)

// Domain errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrFailed       = errors.New("status request failed")
)

var stepValues = map[string]string{
	"New":                 "1",
	"Contact In Progress": "2",
	"Interested":          "3",
	"Pipeline":            "4",
	"Won":                 "5",
	"Lost":                "6",
}

// StepValue maps a sub-status label to its progress step value.
func StepValue(status string) string {
	if v, ok := stepValues[status]; ok {
		return v
	}
	return UnknownStep
}

// StepClass returns the class of step value relative to the current one. The step equal
// to current is marked current rather than completed, unlike the platform's own widget.
func StepClass(current, value string) string {
	c, _ := strconv.Atoi(current)
	v, _ := strconv.Atoi(value)
	switch {
	case v < c:
		return ClassCompleted
	case v == c:
		return ClassCurrent
	default:
		return ClassUpcoming
	}
}

// Step is one entry of the progress indicator.
type Step struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Class string `json:"class"`
}

// Progress is the rendered indicator of one listing.
type Progress struct {
	ListingID string `json:"listingId"`
	Selected  string `json:"selectedValue"`
	Current   string `json:"currentValue"`
	Steps     []Step `json:"steps"`
}

// Platform is the platform client subset used by the status widget.
type Platform interface {
	FetchStatus(ctx context.Context, recordID string) (string, error)
	FetchStatusValues(ctx context.Context) ([]string, error)
	UpdateRecordField(ctx context.Context, id string, fields map[string]any) error
}

// Service defines the status service interface.
type Service interface {
	// Get loads the picklist and the current sub-status of a listing.
	Get(ctx context.Context, listingID string) (*Progress, error)

	// Set stores label as the listing's sub-status and reloads the indicator.
	// When the update fails the selection is still reflected in the result.
	Set(ctx context.Context, listingID, label string) (*Progress, error)
}

type service struct {
	platform Platform
	logger   *slog.Logger
	notifier notify.Notifier
}

// NewService creates a new status service.
func NewService(platform Platform, logger *slog.Logger) Service {
	return &service{platform: platform, logger: logger, notifier: notify.Contextual{}}
}

func (s *service) Get(ctx context.Context, listingID string) (*Progress, error) {
	if err := validation.ValidateRecordID(listingID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	labels := s.labels(ctx)

	status, err := s.platform.FetchStatus(ctx, listingID)
	if err != nil {
		s.logger.Error("fetching status", "listing", listingID, "error", err)
		notify.Error(ctx, s.notifier, "Error", "Error fetching inquiry status")
		return build(listingID, labels, "", UnknownStep), nil
	}
	return build(listingID, labels, status, StepValue(status)), nil
}

func (s *service) Set(ctx context.Context, listingID, label string) (*Progress, error) {
	if err := validation.ValidateRecordID(listingID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", ErrInvalidInput)
	}
	labels := s.labels(ctx)
	idx := slices.Index(labels, label)
	if len(labels) > 0 && idx < 0 {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, label)
	}

	if err := s.platform.UpdateRecordField(ctx, listingID, map[string]any{FieldSubStatus: label}); err != nil {
		s.logger.Error("updating status", "listing", listingID, "label", label, "error", err)
		notify.Error(ctx, s.notifier, "Error", "Error updating Listing Sub status")
		metrics.StatusUpdate("error")
		current := UnknownStep
		if idx >= 0 {
			current = strconv.Itoa(idx + 1)
		}
		return build(listingID, labels, label, current), fmt.Errorf("%w: %w", ErrFailed, err)
	}
	metrics.StatusUpdate("ok")
	notify.Success(ctx, s.notifier, "Success", "Listing Sub status updated successfully")
	return s.Get(ctx, listingID)
}

func (s *service) labels(ctx context.Context) []string {
	labels, err := s.platform.FetchStatusValues(ctx)
	if err != nil {
		s.logger.Error("fetching status picklist", "error", err)
		return nil
	}
	return labels
}

func build(listingID string, labels []string, selected, current string) *Progress {
	p := &Progress{
		ListingID: listingID,
		Selected:  selected,
		Current:   current,
		Steps:     make([]Step, len(labels)),
	}
	for i, l := range labels {
		v := strconv.Itoa(i + 1)
		p.Steps[i] = Step{Label: l, Value: v, Class: StepClass(current, v)}
	}
	return p
}
