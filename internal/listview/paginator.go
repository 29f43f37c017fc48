// Package listview implements the filterable, paginated record list shared by the
// listing manager and the inquiry lead pool.
package listview

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pendergraft/listingdesk/pkg/client"
)

// DefaultPageSizes are the page sizes offered by both list widgets.
var DefaultPageSizes = []int{5, 10, 50, 100}

// DefaultPageSize is the page size a fresh view starts with.
const DefaultPageSize = 10

// ErrPageSizeNotAllowed is returned when a page size outside the allowed set is requested.
var ErrPageSizeNotAllowed = errors.New("page size not allowed")

// Paginator holds a result set, its active filters and the pagination state.
// It is not safe for concurrent use; View serializes access.
type Paginator struct {
	rows        []client.Record
	filters     FilterState
	allowed     []int
	pageSize    int
	currentPage int
}

// NewPaginator creates an empty paginator. allowed must be non-empty and contain pageSize.
func NewPaginator(allowed []int, pageSize int) (*Paginator, error) {
	if len(allowed) == 0 {
		return nil, errors.New("no allowed page sizes")
	}
	for _, n := range allowed {
		if n <= 0 {
			return nil, fmt.Errorf("invalid page size %d", n)
		}
	}
	if !slices.Contains(allowed, pageSize) {
		return nil, fmt.Errorf("%w: %d", ErrPageSizeNotAllowed, pageSize)
	}
	return &Paginator{
		filters:     FilterState{},
		allowed:     slices.Clone(allowed),
		pageSize:    pageSize,
		currentPage: 1,
	}, nil
}

// ReplaceResultSet swaps in a new result set and returns to the first page.
func (p *Paginator) ReplaceResultSet(rows []client.Record) {
	p.rows = rows
	p.currentPage = 1
}

// SetFilter upserts key, or removes it when value is empty.
func (p *Paginator) SetFilter(key, value string) {
	p.filters.Set(key, value)
}

// ClearFilters removes every filter.
func (p *Paginator) ClearFilters() {
	p.filters = FilterState{}
}

// Filters returns a copy of the active filters.
func (p *Paginator) Filters() FilterState {
	return p.filters.Clone()
}

// SetPageSize changes the page size and returns to the first page.
func (p *Paginator) SetPageSize(n int) error {
	if !slices.Contains(p.allowed, n) {
		return fmt.Errorf("%w: %d", ErrPageSizeNotAllowed, n)
	}
	p.pageSize = n
	p.currentPage = 1
	return nil
}

// AllowedPageSizes returns the configured page sizes.
func (p *Paginator) AllowedPageSizes() []int {
	return slices.Clone(p.allowed)
}

// NextPage advances one page; no-op on the last page.
func (p *Paginator) NextPage() {
	if p.currentPage < p.TotalPages() {
		p.currentPage++
	}
}

// PreviousPage goes back one page; no-op on the first page.
func (p *Paginator) PreviousPage() {
	if p.currentPage > 1 {
		p.currentPage--
	}
}

// SetPage jumps to page n, clamped into [1, TotalPages].
func (p *Paginator) SetPage(n int) {
	p.currentPage = min(max(n, 1), p.TotalPages())
}

// VisiblePage returns the rows of the current page.
func (p *Paginator) VisiblePage() []client.Record {
	start := (p.currentPage - 1) * p.pageSize
	if start >= len(p.rows) {
		return []client.Record{}
	}
	end := min(start+p.pageSize, len(p.rows))
	return p.rows[start:end:end]
}

// PageSize returns the page size.
func (p *Paginator) PageSize() int { return p.pageSize }

// CurrentPage returns the 1-based current page.
func (p *Paginator) CurrentPage() int { return p.currentPage }

// TotalRecords returns the size of the result set.
func (p *Paginator) TotalRecords() int { return len(p.rows) }

// TotalPages returns ceil(TotalRecords/PageSize), never less than 1.
func (p *Paginator) TotalPages() int {
	return max(1, (len(p.rows)+p.pageSize-1)/p.pageSize)
}

// HasPrevious reports whether PreviousPage would move.
func (p *Paginator) HasPrevious() bool { return p.currentPage > 1 }

// HasNext reports whether NextPage would move.
func (p *Paginator) HasNext() bool { return p.currentPage < p.TotalPages() }
