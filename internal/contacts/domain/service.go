// Package domain contains the duplicate-checked contact creator.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pendergraft/listingdesk/internal/notify"
	"github.com/pendergraft/listingdesk/internal/observability/metrics"
	"github.com/pendergraft/listingdesk/internal/validation"
	"github.com/pendergraft/listingdesk/pkg/client"
)

// ObjectContact is the platform object type of created contacts.
const ObjectContact = "Contact"

// Domain errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrFailed       = errors.New("contact request failed")
)

// Column is a column of the duplicate table.
type Column struct {
	Label     string `json:"label"`
	FieldName string `json:"fieldName"`
}

// DuplicateColumns are shown when a submission matches existing contacts.
var DuplicateColumns = []Column{
	{Label: "Name", FieldName: "Name"},
	{Label: "Email", FieldName: "Email"},
	{Label: "Mobile", FieldName: "MobilePhone"},
	{Label: "Phone", FieldName: "Phone"},
}

// Navigation is the record page a host should open after a create.
type Navigation struct {
	Type          string `json:"type"`
	RecordID      string `json:"recordId"`
	ObjectAPIName string `json:"objectApiName"`
	ActionName    string `json:"actionName"`
}

// Result is the outcome of a submission: either the duplicates found or the
// navigation target of the created contact.
type Result struct {
	Duplicates []client.Record `json:"duplicates,omitempty"`
	Columns    []Column        `json:"columns,omitempty"`
	Navigation *Navigation     `json:"navigation,omitempty"`
}

// Platform is the platform client subset used by the contact creator.
type Platform interface {
	FetchContactFields(ctx context.Context) ([]string, error)
	FindDuplicate(ctx context.Context, email, phone, mobile string) ([]client.Record, error)
	CreateRecord(ctx context.Context, objectType string, fields map[string]any) (client.Record, error)
}

// Service defines the contacts service interface.
type Service interface {
	// Fields returns the new-contact field set, empty when it cannot be loaded.
	Fields(ctx context.Context) []string

	// Create checks for duplicates and creates the contact when none exist.
	Create(ctx context.Context, fields map[string]any) (*Result, error)
}

type service struct {
	platform Platform
	logger   *slog.Logger
	notifier notify.Notifier
}

// NewService creates a new contacts service.
func NewService(platform Platform, logger *slog.Logger) Service {
	return &service{platform: platform, logger: logger, notifier: notify.Contextual{}}
}

func (s *service) Fields(ctx context.Context) []string {
	fields, err := s.platform.FetchContactFields(ctx)
	if err != nil {
		s.logger.Error("fetching contact field set", "error", err)
		return []string{}
	}
	if fields == nil {
		fields = []string{}
	}
	return fields
}

func (s *service) Create(ctx context.Context, fields map[string]any) (*Result, error) {
	for k := range fields {
		if err := validation.ValidateFieldKey(k); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	dups, err := s.platform.FindDuplicate(ctx, text(fields, "Email"), text(fields, "Phone"), text(fields, "MobilePhone"))
	if err != nil {
		s.logger.Error("checking for duplicate contacts", "error", err)
		notify.Error(ctx, s.notifier, "Error", client.Message(err))
		metrics.ContactCreate("error")
		return nil, fmt.Errorf("%w: checking duplicates: %w", ErrFailed, err)
	}
	// an empty list is no duplicate, same as null
	if len(dups) > 0 {
		metrics.ContactCreate("duplicate")
		return &Result{Duplicates: dups, Columns: DuplicateColumns}, nil
	}

	rec, err := s.platform.CreateRecord(ctx, ObjectContact, fields)
	if err != nil {
		s.logger.Error("creating contact", "error", err)
		notify.Error(ctx, s.notifier, "Error", client.Message(err))
		metrics.ContactCreate("error")
		return nil, fmt.Errorf("%w: creating contact: %w", ErrFailed, err)
	}
	metrics.ContactCreate("created")
	return &Result{Navigation: &Navigation{
		Type:          "standard__recordPage",
		RecordID:      rec.ID(),
		ObjectAPIName: ObjectContact,
		ActionName:    "view",
	}}, nil
}

func text(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}
