package client

import (
	"fmt"
	"strings"
)

// Record is an opaque platform entity (listing, contact, inquiry, ...).
type Record map[string]any

// ID returns the record's Id field
func (r Record) ID() string {
	return r.String("Id")
}

// String returns the field as a string, or "" when absent or null.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the field as a bool; anything but a true boolean is false.
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Lookup follows a relationship path such as "Owner.Name".
func (r Record) Lookup(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// Clone returns a shallow copy
func (r Record) Clone() Record {
	out := make(Record, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	default:
		return nil, false
	}
}

// Source selects which list controller serves a filtered fetch.
type Source string

// Known list sources
const (
	SourceListings  Source = "listing"
	SourceInquiries Source = "inquiry"
)

// FieldMetadata describes one filterable field
type FieldMetadata struct {
	APIName        string   `json:"apiName"`
	Label          string   `json:"label"`
	Type           string   `json:"type"`
	PicklistValues []string `json:"picklistValues,omitempty"`
}

// ColumnMetadata describes one table column
type ColumnMetadata struct {
	APIName string `json:"apiName"`
	Label   string `json:"label"`
}

// Portal is a syndication destination as listed for one listing
type Portal struct {
	PortalName          string `json:"portalName"`
	PortalStatus        string `json:"PortalStatus"`
	IsPublishedOnPortal bool   `json:"isPublishedOnPortal"`
}

// RegionPortal is a portal available in the listing's region
type RegionPortal struct {
	ID           string `json:"Id"`
	PortalName   string `json:"portalName"`
	PortalStatus string `json:"portalStatus"`
}

// PublishResult is the structured outcome of a publish or unpublish call.
// A successful HTTP exchange can still carry IsSuccess=false.
type PublishResult struct {
	IsSuccess bool   `json:"isSuccess"`
	ErrorMsg  string `json:"errorMsg,omitempty"`
}

// MediaFile is a stored listing image
type MediaFile struct {
	ID                string `json:"Id"`
	ContentDocumentID string `json:"ContentDocumentId__c"`
	SerialNumber      int    `json:"serialNumber,omitempty"`
}

// MediaSentinel is returned by CheckMediaPresence when the listing has media.
const MediaSentinel = "Listing has media"
