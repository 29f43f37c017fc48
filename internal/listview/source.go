package listview

import (
	"context"

	"github.com/pendergraft/listingdesk/pkg/client"
)

// Platform is the subset of the platform client a list source needs.
type Platform interface {
	FetchFilteredRecords(ctx context.Context, source client.Source, limit int, filters map[string]string) ([]client.Record, error)
	FetchFilterFields(ctx context.Context, source client.Source) ([]client.FieldMetadata, error)
	FetchTableColumns(ctx context.Context, source client.Source) ([]client.ColumnMetadata, error)
}

// PlatformSource serves records and metadata of one platform list source.
type PlatformSource struct {
	Platform Platform
	Source   client.Source
}

// FetchFilteredRecords implements RecordSource.
func (s PlatformSource) FetchFilteredRecords(ctx context.Context, limit int, filters map[string]string) ([]client.Record, error) {
	return s.Platform.FetchFilteredRecords(ctx, s.Source, limit, filters)
}

// FilterFields implements MetadataSource.
func (s PlatformSource) FilterFields(ctx context.Context) ([]client.FieldMetadata, error) {
	return s.Platform.FetchFilterFields(ctx, s.Source)
}

// Columns implements MetadataSource.
func (s PlatformSource) Columns(ctx context.Context) ([]client.ColumnMetadata, error) {
	return s.Platform.FetchTableColumns(ctx, s.Source)
}
