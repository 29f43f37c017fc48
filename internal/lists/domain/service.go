package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pendergraft/listingdesk/internal/listview"
	"github.com/pendergraft/listingdesk/internal/notify"
	"github.com/pendergraft/listingdesk/internal/observability/metrics"
	"github.com/pendergraft/listingdesk/internal/session"
	"github.com/pendergraft/listingdesk/internal/storage"
	"github.com/pendergraft/listingdesk/internal/validation"
	"github.com/pendergraft/listingdesk/pkg/client"
)

// Service defines the list-view service interface.
type Service interface {
	// Open creates and activates a new session of view.
	Open(ctx context.Context, view string) (*Session, error)

	// OpenWithID is Open with a caller-chosen session id, replacing any session with that id.
	OpenWithID(ctx context.Context, view, id string) (*Session, error)

	// Get returns a session, restoring it from persisted state after eviction.
	Get(ctx context.Context, view, id string) (*Session, error)

	// SetFilter sets or, with an empty value, removes one filter and re-fetches.
	SetFilter(ctx context.Context, view, id, key, value string) (*Session, error)

	// ResetFilters removes all filters and re-fetches.
	ResetFilters(ctx context.Context, view, id string) (*Session, error)

	// SetPageSize changes the page size.
	SetPageSize(ctx context.Context, view, id string, size int) (*Session, error)

	// NextPage and PreviousPage move one page.
	NextPage(ctx context.Context, view, id string) (*Session, error)
	PreviousPage(ctx context.Context, view, id string) (*Session, error)

	// Close ends a session and forgets its persisted state.
	Close(ctx context.Context, view, id string) error

	// PurgeStale deletes persisted state older than the retention period.
	PurgeStale(ctx context.Context) (int64, error)
}

// Platform is the platform client subset used by list views.
type Platform = listview.Platform

// StateStore persists view state.
type StateStore interface {
	SaveViewState(ctx context.Context, st *storage.ViewState) error
	GetViewState(ctx context.Context, id string) (*storage.ViewState, error)
	DeleteViewState(ctx context.Context, id string) error
	PurgeViewStates(ctx context.Context, before time.Time) (int64, error)
}

// service implements the Service interface.
type service struct {
	platform Platform
	store    StateStore
	opts     Options
	logger   *slog.Logger
	views    map[string]Definition
	sessions *session.Registry[*listview.View]

	// restoreMu serializes restores so a session is rebuilt once
	restoreMu sync.Mutex
}

// NewService creates a new list-view service.
func NewService(platform Platform, store StateStore, opts Options, logger *slog.Logger) Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.StateRetention <= 0 {
		opts.StateRetention = 7 * 24 * time.Hour
	}
	views := make(map[string]Definition)
	for _, d := range Definitions() {
		views[d.Name] = d
	}
	return &service{
		platform: platform,
		store:    store,
		opts:     opts,
		logger:   logger,
		views:    views,
		sessions: session.NewRegistry(opts.SessionTTL, func(id string, v *listview.View) {
			metrics.SessionClosed(v.Name())
			logger.Debug("list session evicted", "view", v.Name(), "session", id)
		}),
	}
}

func (s *service) definition(view string) (Definition, error) {
	d, ok := s.views[view]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownView, view)
	}
	return d, nil
}

func (s *service) newView(def Definition) (*listview.View, error) {
	src := meteredSource{PlatformSource: listview.PlatformSource{Platform: s.platform, Source: def.Source}, view: def.Name}
	return listview.New(listview.Config{
		Name:                def.Name,
		Records:             src,
		Metadata:            src,
		ExcludeFilterFields: def.ExcludeFilterFields,
		Limit:               s.opts.RecordLimit,
		PageSizes:           s.opts.PageSizes,
		PageSize:            s.opts.DefaultPageSize,
		Notifier:            notify.Contextual{},
		Logger:              s.logger,
	})
}

// Open creates and activates a new session of view.
func (s *service) Open(ctx context.Context, view string) (*Session, error) {
	return s.OpenWithID(ctx, view, uuid.New().String())
}

// OpenWithID creates and activates a session under id.
func (s *service) OpenWithID(ctx context.Context, view, id string) (*Session, error) {
	def, err := s.definition(view)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateRecordID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	v, err := s.newView(def)
	if err != nil {
		return nil, err
	}

	fetchErr := v.Activate(ctx)

	s.sessions.Delete(id)
	s.sessions.Put(id, v)
	metrics.SessionOpened(view)
	s.persist(ctx, id, v)

	return sessionOf(id, v), wrapFetch(fetchErr)
}

// Get returns a session, restoring it from persisted state when needed.
func (s *service) Get(ctx context.Context, view, id string) (*Session, error) {
	return s.do(ctx, view, id, nil)
}

// SetFilter sets or removes one filter.
func (s *service) SetFilter(ctx context.Context, view, id, key, value string) (*Session, error) {
	if err := validation.ValidateFieldKey(key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := validation.ValidateFilterValue(value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.do(ctx, view, id, func(v *listview.View) error {
		return wrapFetch(v.SetFilter(ctx, key, value))
	})
}

// ResetFilters clears every filter.
func (s *service) ResetFilters(ctx context.Context, view, id string) (*Session, error) {
	return s.do(ctx, view, id, func(v *listview.View) error {
		return wrapFetch(v.ClearFilters(ctx))
	})
}

// SetPageSize changes the page size.
func (s *service) SetPageSize(ctx context.Context, view, id string, size int) (*Session, error) {
	return s.do(ctx, view, id, func(v *listview.View) error {
		if err := v.SetPageSize(size); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPageSize, err)
		}
		return nil
	})
}

// NextPage advances one page.
func (s *service) NextPage(ctx context.Context, view, id string) (*Session, error) {
	return s.do(ctx, view, id, func(v *listview.View) error {
		v.NextPage()
		return nil
	})
}

// PreviousPage goes back one page.
func (s *service) PreviousPage(ctx context.Context, view, id string) (*Session, error) {
	return s.do(ctx, view, id, func(v *listview.View) error {
		v.PreviousPage()
		return nil
	})
}

// Close ends a session. A session of another view is reported as not found.
func (s *service) Close(ctx context.Context, view, id string) error {
	if _, err := s.definition(view); err != nil {
		return err
	}

	entry, live := s.sessions.Get(id)
	if live {
		var owner string
		_ = entry.Do(func(v *listview.View) error {
			owner = v.Name()
			return nil
		})
		if owner != view {
			return ErrSessionNotFound
		}
	} else {
		st, err := s.store.GetViewState(ctx, id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return ErrSessionNotFound
		case err != nil:
			return fmt.Errorf("loading view state: %w", err)
		case st.View != view:
			return ErrSessionNotFound
		}
	}
	s.sessions.Delete(id)

	err := s.store.DeleteViewState(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("deleting view state: %w", err)
	}
	return nil
}

// PurgeStale deletes persisted state past the retention period.
func (s *service) PurgeStale(ctx context.Context) (int64, error) {
	return s.store.PurgeViewStates(ctx, time.Now().Add(-s.opts.StateRetention))
}

// do runs fn on the session under its lock, persists the resulting state and returns the
// render model. The model is returned alongside a fetch error so hosts can still render.
func (s *service) do(ctx context.Context, view, id string, fn func(*listview.View) error) (*Session, error) {
	if _, err := s.definition(view); err != nil {
		return nil, err
	}
	entry, restoreErr := s.entry(ctx, view, id)
	if entry == nil {
		return nil, restoreErr
	}

	var out *Session
	var fnErr error
	err := entry.Do(func(v *listview.View) error {
		if v.Name() != view {
			return ErrSessionNotFound
		}
		if fn != nil {
			fnErr = fn(v)
		}
		s.persist(ctx, id, v)
		out = sessionOf(id, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if fnErr != nil {
		return out, fnErr
	}
	return out, restoreErr
}

// entry finds a live session or rebuilds it from the store. A non-nil entry may come
// with a fetch error from the rebuild.
func (s *service) entry(ctx context.Context, view, id string) (*session.Entry[*listview.View], error) {
	if e, ok := s.sessions.Get(id); ok {
		return e, nil
	}

	s.restoreMu.Lock()
	defer s.restoreMu.Unlock()

	if e, ok := s.sessions.Get(id); ok {
		return e, nil
	}

	st, err := s.store.GetViewState(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading view state: %w", err)
	}
	if st.View != view {
		return nil, ErrSessionNotFound
	}

	def, err := s.definition(view)
	if err != nil {
		return nil, err
	}
	v, err := s.newView(def)
	if err != nil {
		return nil, err
	}
	v.Restore(listview.State{Filters: st.Filters, PageSize: st.PageSize, CurrentPage: st.CurrentPage})
	fetchErr := v.Activate(ctx)

	e := s.sessions.Put(id, v)
	metrics.SessionOpened(view)
	s.logger.Debug("list session restored", "view", view, "session", id)
	return e, wrapFetch(fetchErr)
}

func (s *service) persist(ctx context.Context, id string, v *listview.View) {
	st := v.State()
	err := s.store.SaveViewState(ctx, &storage.ViewState{
		ID:          id,
		View:        v.Name(),
		Filters:     st.Filters,
		PageSize:    st.PageSize,
		CurrentPage: st.CurrentPage,
	})
	if err != nil {
		s.logger.Warn("persisting view state", "view", v.Name(), "session", id, "error", err)
	}
}

func sessionOf(id string, v *listview.View) *Session {
	return &Session{ID: id, Snapshot: v.Snapshot()}
}

func wrapFetch(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrFetchFailed, err)
}

// meteredSource counts fetches per view.
type meteredSource struct {
	listview.PlatformSource
	view string
}

func (m meteredSource) FetchFilteredRecords(ctx context.Context, limit int, filters map[string]string) ([]client.Record, error) {
	rows, err := m.PlatformSource.FetchFilteredRecords(ctx, limit, filters)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ListFetch(m.view, status)
	return rows, err
}
