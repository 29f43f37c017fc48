package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/pendergraft/listingdesk/internal/notify"
	"github.com/pendergraft/listingdesk/internal/observability/metrics"
	"github.com/pendergraft/listingdesk/internal/publish"
	"github.com/pendergraft/listingdesk/internal/session"
	"github.com/pendergraft/listingdesk/internal/validation"
	"github.com/pendergraft/listingdesk/pkg/client"
)

// Service defines the portals service interface.
type Service interface {
	// ListPortals returns the portal table of a listing.
	ListPortals(ctx context.Context, listingID string) ([]Row, error)

	// Execute runs the publish workflow for one portal. Gate and remote failures are
	// reported through the Outcome; the error covers bad input and concurrent runs.
	Execute(ctx context.Context, listingID, portal, action string) (*publish.Outcome, error)

	// OpenBoard loads the regional portal board of a listing.
	OpenBoard(ctx context.Context, listingID string) (*Board, error)

	// GetBoard returns a board session.
	GetBoard(ctx context.Context, boardID string) (*Board, error)

	// ToggleBoardRow flips one board row between Active and Inactive.
	ToggleBoardRow(ctx context.Context, boardID, rowID string) (*Board, error)
}

// Platform is the platform client subset used by the portal widgets.
type Platform interface {
	SettingsFetcher
	publish.MediaChecker
	publish.Submitter
	ListPortals(ctx context.Context, listingID string) ([]client.Portal, error)
	ListRegionPortals(ctx context.Context, listingID string) ([]client.RegionPortal, error)
	FetchListing(ctx context.Context, listingID string) (client.Record, error)
}

// Options configures the portals service.
type Options struct {
	Settings []FieldSetting
	BoardTTL time.Duration
}

// service implements the Service interface.
type service struct {
	platform Platform
	settings []FieldSetting
	logger   *slog.Logger
	notifier notify.Notifier

	// required caches parsed settings by setting name for the service lifetime
	required *cache.Cache
	loads    singleflight.Group

	// inflight holds listing|portal keys of running workflows
	inflight sync.Map

	boards *session.Registry[*Board]
}

// NewService creates a new portals service.
func NewService(platform Platform, opts Options, logger *slog.Logger) Service {
	if opts.Settings == nil {
		opts.Settings = DefaultFieldSettings()
	}
	if opts.BoardTTL <= 0 {
		opts.BoardTTL = 30 * time.Minute
	}
	return &service{
		platform: platform,
		settings: opts.Settings,
		logger:   logger,
		notifier: notify.Contextual{},
		required: cache.New(cache.NoExpiration, 0),
		boards: session.NewRegistry(opts.BoardTTL, func(id string, _ *Board) {
			metrics.SessionClosed("region-portals")
		}),
	}
}

// ListPortals returns the decorated portal rows of a listing.
func (s *service) ListPortals(ctx context.Context, listingID string) ([]Row, error) {
	if err := validation.ValidateRecordID(listingID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	portals, err := s.platform.ListPortals(ctx, listingID)
	if err != nil {
		notify.Error(ctx, s.notifier, "Error", client.Message(err))
		return nil, fmt.Errorf("%w: listing portals: %w", ErrFetchFailed, err)
	}
	rows := make([]Row, len(portals))
	for i, p := range portals {
		rows[i] = NewRow(p)
	}
	return rows, nil
}

// Execute runs one publish or unpublish attempt.
func (s *service) Execute(ctx context.Context, listingID, portal, action string) (*publish.Outcome, error) {
	if err := validation.ValidateRecordID(listingID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if portal == "" {
		return nil, fmt.Errorf("%w: portal name cannot be empty", ErrInvalidInput)
	}
	act, err := publish.ParseAction(action)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	key := listingID + "|" + portal
	if _, busy := s.inflight.LoadOrStore(key, struct{}{}); busy {
		return nil, ErrInProgress
	}
	defer s.inflight.Delete(key)

	listing := client.Record{"Id": listingID}
	if act == publish.ActionPublish {
		listing, err = s.platform.FetchListing(ctx, listingID)
		if err != nil {
			notify.Error(ctx, s.notifier, "Error", "Error fetching listing data")
			return nil, fmt.Errorf("%w: fetching listing: %w", ErrFetchFailed, err)
		}
		if listing.ID() == "" {
			listing = listing.Clone()
			listing["Id"] = listingID
		}
	}

	var required map[string][]publish.RequiredField
	if act == publish.ActionPublish {
		required = s.requiredFields(ctx)
	}

	wf := publish.New(publish.GateContext{
		Portal:         portal,
		Action:         act,
		Listing:        listing,
		RequiredFields: required,
	}, s.platform, s.platform, s.logger)

	out, err := wf.Run(ctx)
	if err != nil {
		return nil, err
	}
	metrics.PublishWorkflow(string(act), string(out.State), string(out.Reason))

	switch {
	case out.State == publish.StateDone:
		notify.Success(ctx, s.notifier, "Listing "+act.Past(), out.Message)
	case !out.Reason.Validation():
		notify.Error(ctx, s.notifier, "Error", out.Message)
	}
	return &out, nil
}

// requiredFields returns the required fields of every configured portal. A setting that
// fails to load leaves its portals with an empty list and is retried on the next call.
func (s *service) requiredFields(ctx context.Context) map[string][]publish.RequiredField {
	out := make(map[string][]publish.RequiredField)
	for _, fs := range s.settings {
		fields, err := s.setting(ctx, fs)
		if err != nil {
			s.logger.Error("loading required fields", "setting", fs.Name, "error", err)
		}
		for _, p := range fs.Portals {
			out[p] = fields
		}
	}
	return out
}

func (s *service) setting(ctx context.Context, fs FieldSetting) ([]publish.RequiredField, error) {
	if v, ok := s.required.Get(fs.Name); ok {
		return v.([]publish.RequiredField), nil
	}
	// joined callers share this load, so one caller's cancellation must not fail it
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.loads.Do(fs.Name, func() (any, error) {
		fields, err := fs.load(loadCtx, s.platform)
		if err != nil {
			return nil, err
		}
		s.required.Set(fs.Name, fields, cache.NoExpiration)
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]publish.RequiredField), nil
}

// OpenBoard loads the regional portals of a listing into a new board session.
func (s *service) OpenBoard(ctx context.Context, listingID string) (*Board, error) {
	if err := validation.ValidateRecordID(listingID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	portals, err := s.platform.ListRegionPortals(ctx, listingID)
	if err != nil {
		s.logger.Error("fetching region portals", "listing", listingID, "error", err)
		notify.Error(ctx, s.notifier, "Error", "Error fetching portals")
		return nil, fmt.Errorf("%w: listing region portals: %w", ErrFetchFailed, err)
	}

	b := &Board{ListingID: listingID, Rows: make([]BoardRow, len(portals))}
	for i, p := range portals {
		b.Rows[i] = NewBoardRow(p)
	}
	e := s.boards.Add(b)
	b.ID = e.ID
	metrics.SessionOpened("region-portals")
	return b.clone(), nil
}

// GetBoard returns a board session.
func (s *service) GetBoard(_ context.Context, boardID string) (*Board, error) {
	e, ok := s.boards.Get(boardID)
	if !ok {
		return nil, ErrBoardNotFound
	}
	var out *Board
	_ = e.Do(func(b *Board) error {
		out = b.clone()
		return nil
	})
	return out, nil
}

// ToggleBoardRow flips a row locally and notifies success.
func (s *service) ToggleBoardRow(ctx context.Context, boardID, rowID string) (*Board, error) {
	e, ok := s.boards.Get(boardID)
	if !ok {
		return nil, ErrBoardNotFound
	}
	var out *Board
	err := e.Do(func(b *Board) error {
		for i := range b.Rows {
			if b.Rows[i].ID == rowID {
				b.Rows[i].Toggle()
				out = b.clone()
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrRowNotFound, rowID)
	})
	if err != nil {
		return nil, err
	}
	notify.Success(ctx, s.notifier, "Success", "Portal status updated successfully")
	return out, nil
}
