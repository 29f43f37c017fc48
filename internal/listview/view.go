package listview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pendergraft/listingdesk/internal/notify"
	"github.com/pendergraft/listingdesk/pkg/client"
)

// DefaultRecordLimit caps how many records a single fetch returns.
const DefaultRecordLimit = 100

// RecordSource fetches the filtered result set.
type RecordSource interface {
	FetchFilteredRecords(ctx context.Context, limit int, filters map[string]string) ([]client.Record, error)
}

// MetadataSource describes the filter inputs and table columns of a list.
type MetadataSource interface {
	FilterFields(ctx context.Context) ([]client.FieldMetadata, error)
	Columns(ctx context.Context) ([]client.ColumnMetadata, error)
}

// Config parameterizes a View.
type Config struct {
	Name                string
	Records             RecordSource
	Metadata            MetadataSource
	Decorate            Decorator
	ExcludeFilterFields []string
	Limit               int
	PageSizes           []int
	PageSize            int
	Notifier            notify.Notifier
	Logger              *slog.Logger
}

// State is the persistable part of a view.
type State struct {
	Filters     FilterState `json:"filters"`
	PageSize    int         `json:"pageSize"`
	CurrentPage int         `json:"currentPage"`
}

// Pagination is the render model of the pagination controls.
type Pagination struct {
	PageSize     int   `json:"pageSize"`
	PageSizes    []int `json:"pageSizes"`
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalRecords int   `json:"totalRecords"`
	HasPrevious  bool  `json:"hasPrevious"`
	HasNext      bool  `json:"hasNext"`
}

// Snapshot is everything a host needs to render the view.
type Snapshot struct {
	Name         string          `json:"name"`
	Columns      []Column        `json:"columns"`
	FilterFields []FilterField   `json:"filterFields"`
	Filters      FilterState     `json:"filters"`
	Rows         []client.Record `json:"rows"`
	Pagination   Pagination      `json:"pagination"`
	Loading      bool            `json:"loading"`
}

// View binds a Paginator to its remote sources. Filter mutations trigger a re-fetch.
// A View belongs to exactly one widget instance.
type View struct {
	cfg Config

	mu           sync.Mutex
	pager        *Paginator
	filterFields []FilterField
	columns      []Column
	generation   uint64
	loading      bool
	pendingPage  int
}

// New creates a view. Zero-valued limit, page sizes, decorator, notifier and logger
// fall back to defaults.
func New(cfg Config) (*View, error) {
	if cfg.Records == nil {
		return nil, errors.New("listview: record source required")
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultRecordLimit
	}
	if len(cfg.PageSizes) == 0 {
		cfg.PageSizes = DefaultPageSizes
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Decorate == nil {
		cfg.Decorate = DecorateOwnerAndURL
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	pager, err := NewPaginator(cfg.PageSizes, cfg.PageSize)
	if err != nil {
		return nil, err
	}
	return &View{
		cfg:          cfg,
		pager:        pager,
		filterFields: []FilterField{},
		columns:      []Column{},
	}, nil
}

// Name returns the configured view name.
func (v *View) Name() string { return v.cfg.Name }

// Restore applies previously persisted state. Call it before Activate; the saved page
// is reapplied once the first fetch lands.
func (v *View) Restore(st State) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.pager.ClearFilters()
	for k, val := range st.Filters {
		v.pager.SetFilter(k, val)
	}
	if st.PageSize != 0 {
		if err := v.pager.SetPageSize(st.PageSize); err != nil {
			v.cfg.Logger.Warn("ignoring persisted page size", "view", v.cfg.Name, "pageSize", st.PageSize)
		}
	}
	v.pendingPage = st.CurrentPage
}

// Activate loads the field metadata and performs the initial fetch. Metadata failures
// are notified and degrade to empty filters/columns; only the fetch error is returned.
func (v *View) Activate(ctx context.Context) error {
	v.loadMetadata(ctx)

	if err := v.refresh(ctx); err != nil {
		return err
	}

	v.mu.Lock()
	if v.pendingPage > 1 {
		v.pager.SetPage(v.pendingPage)
	}
	v.pendingPage = 0
	v.mu.Unlock()
	return nil
}

func (v *View) loadMetadata(ctx context.Context) {
	if v.cfg.Metadata == nil {
		return
	}

	fields, err := v.cfg.Metadata.FilterFields(ctx)
	if err != nil {
		v.cfg.Logger.Warn("loading filter fields", "view", v.cfg.Name, "error", err)
		notify.Error(ctx, v.cfg.Notifier, "Error", client.Message(err))
	} else {
		built := BuildFilterFields(fields, v.cfg.ExcludeFilterFields)
		v.mu.Lock()
		v.filterFields = built
		v.mu.Unlock()
	}

	cols, err := v.cfg.Metadata.Columns(ctx)
	if err != nil {
		v.cfg.Logger.Warn("loading table columns", "view", v.cfg.Name, "error", err)
		notify.Error(ctx, v.cfg.Notifier, "Error", client.Message(err))
	} else {
		built := BuildColumns(cols)
		v.mu.Lock()
		v.columns = built
		v.mu.Unlock()
	}
}

// SetFilter applies or removes one filter, then re-fetches. The filter stays applied
// when the fetch fails.
func (v *View) SetFilter(ctx context.Context, key, value string) error {
	v.mu.Lock()
	v.pager.SetFilter(key, value)
	v.mu.Unlock()
	return v.refresh(ctx)
}

// ClearFilters removes all filters, then re-fetches.
func (v *View) ClearFilters(ctx context.Context) error {
	v.mu.Lock()
	v.pager.ClearFilters()
	v.mu.Unlock()
	return v.refresh(ctx)
}

// Refresh re-fetches with the current filters.
func (v *View) Refresh(ctx context.Context) error {
	return v.refresh(ctx)
}

// refresh fetches outside the lock. Responses that arrive after a newer fetch started
// are dropped so a slow stale response never overwrites newer state.
func (v *View) refresh(ctx context.Context) error {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	filters := v.pager.Filters()
	v.loading = true
	v.mu.Unlock()

	rows, err := v.cfg.Records.FetchFilteredRecords(ctx, v.cfg.Limit, filters)

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		v.cfg.Logger.Debug("dropping stale fetch", "view", v.cfg.Name, "generation", gen)
		return nil
	}
	v.loading = false
	if err != nil {
		v.mu.Unlock()
		v.cfg.Logger.Error("fetching records", "view", v.cfg.Name, "filters", filters, "error", err)
		notify.Error(ctx, v.cfg.Notifier, "Error", client.Message(err))
		return fmt.Errorf("fetching %s records: %w", v.cfg.Name, err)
	}

	decorated := make([]client.Record, len(rows))
	for i, r := range rows {
		decorated[i] = v.cfg.Decorate(r)
	}
	v.pager.ReplaceResultSet(decorated)
	v.mu.Unlock()

	v.cfg.Logger.Debug("records fetched", "view", v.cfg.Name, "count", len(decorated), "filters", len(filters))
	return nil
}

// SetPageSize changes the page size.
func (v *View) SetPageSize(n int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.SetPageSize(n)
}

// NextPage advances one page.
func (v *View) NextPage() {
	v.mu.Lock()
	v.pager.NextPage()
	v.mu.Unlock()
}

// PreviousPage goes back one page.
func (v *View) PreviousPage() {
	v.mu.Lock()
	v.pager.PreviousPage()
	v.mu.Unlock()
}

// SetPage jumps to a page, clamped.
func (v *View) SetPage(n int) {
	v.mu.Lock()
	v.pager.SetPage(n)
	v.mu.Unlock()
}

// State returns the persistable state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		Filters:     v.pager.Filters(),
		PageSize:    v.pager.PageSize(),
		CurrentPage: v.pager.CurrentPage(),
	}
}

// Snapshot returns the current render model.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		Name:         v.cfg.Name,
		Columns:      v.columns,
		FilterFields: v.filterFields,
		Filters:      v.pager.Filters(),
		Rows:         v.pager.VisiblePage(),
		Pagination: Pagination{
			PageSize:     v.pager.PageSize(),
			PageSizes:    v.pager.AllowedPageSizes(),
			CurrentPage:  v.pager.CurrentPage(),
			TotalPages:   v.pager.TotalPages(),
			TotalRecords: v.pager.TotalRecords(),
			HasPrevious:  v.pager.HasPrevious(),
			HasNext:      v.pager.HasNext(),
		},
		Loading: v.loading,
	}
}
