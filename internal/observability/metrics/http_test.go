package metrics

import (
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/api/v1/listings/a0B5g00000XyZabEAF/portals", "/api/v1/listings/{id}/portals"},
		{"/api/v1/listings/a0B5g00000XyZab/media", "/api/v1/listings/{id}/media"},
		{"/api/v1/views/leads/sessions/2b1f6c1e-8b7a-4f43-9d7e-0c5b2f7a9e11/next", "/api/v1/views/leads/sessions/{id}/next"},
		{"/api/v1/contacts/fields", "/api/v1/contacts/fields"},
		{"/api/v1/listings/123/status", "/api/v1/listings/{id}/status"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestDisabledMetricsAreNoops(t *testing.T) {
	Init(false, "test")
	ListFetch("listings", "ok")
	PublishWorkflow("Publish", "Done", "")
	MediaUpload("ok")
	ContactCreate("created")
	StatusUpdate("ok")
	SessionOpened("listings")
	SessionClosed("listings")
	if Enabled() {
		t.Error("Enabled() = true after Init(false)")
	}
}
