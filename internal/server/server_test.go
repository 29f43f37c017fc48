package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/listingdesk/internal/config"
	"github.com/pendergraft/listingdesk/internal/storage"
	"github.com/pendergraft/listingdesk/pkg/client"
)

// fakePlatform serves 23 listings and a single published portal.
type fakePlatform struct{}

func (fakePlatform) FetchFilteredRecords(_ context.Context, _ client.Source, _ int, filters map[string]string) ([]client.Record, error) {
	n := 23
	if filters["City__c"] != "" {
		n = 4
	}
	out := make([]client.Record, n)
	for i := range out {
		out[i] = client.Record{"Id": fmt.Sprintf("a0B%03d", i), "Name": fmt.Sprintf("Listing %d", i)}
	}
	return out, nil
}

func (fakePlatform) FetchFilterFields(context.Context, client.Source) ([]client.FieldMetadata, error) {
	return []client.FieldMetadata{{APIName: "City__c", Label: "City", Type: "STRING"}}, nil
}

func (fakePlatform) FetchTableColumns(context.Context, client.Source) ([]client.ColumnMetadata, error) {
	return []client.ColumnMetadata{{APIName: "Name", Label: "Name"}}, nil
}

func (fakePlatform) FindDuplicate(context.Context, string, string, string) ([]client.Record, error) {
	return nil, nil
}

func (fakePlatform) FetchContactFields(context.Context) ([]string, error) {
	return []string{"LastName", "Email"}, nil
}

func (fakePlatform) CreateRecord(context.Context, string, map[string]any) (client.Record, error) {
	return client.Record{"Id": "003000000000001"}, nil
}

func (fakePlatform) UpdateRecordField(context.Context, string, map[string]any) error { return nil }

func (fakePlatform) UploadFile(context.Context, string, string, string) error { return nil }

func (fakePlatform) ListFiles(context.Context, string) ([]client.MediaFile, error) {
	return []client.MediaFile{{ID: "f1", ContentDocumentID: "069A"}}, nil
}

func (fakePlatform) ReorderFiles(context.Context, []client.MediaFile) error { return nil }

func (fakePlatform) CheckMediaPresence(context.Context, string) (string, error) {
	return "Media present", nil
}

func (fakePlatform) PublishOrUnpublish(context.Context, string, string, string) (*client.PublishResult, error) {
	return &client.PublishResult{IsSuccess: true}, nil
}

func (fakePlatform) FetchListing(context.Context, string) (client.Record, error) {
	return client.Record{"Id": "a0B1", "City__c": "York", "os_PostalCode_pb__c": "YO1 7HH"}, nil
}

func (fakePlatform) ListPortals(context.Context, string) ([]client.Portal, error) {
	return []client.Portal{{PortalName: "Rightmove UK", PortalStatus: "Active", IsPublishedOnPortal: true}}, nil
}

func (fakePlatform) ListRegionPortals(context.Context, string) ([]client.RegionPortal, error) {
	return []client.RegionPortal{{ID: "rp1", PortalName: "Rightmove UK", PortalStatus: "Active"}}, nil
}

func (fakePlatform) FetchPortalFieldSettings(context.Context, string) ([]client.Record, error) {
	return nil, nil
}

func (fakePlatform) FetchStatus(context.Context, string) (string, error) { return "Interested", nil }

func (fakePlatform) FetchStatusValues(context.Context) ([]string, error) {
	return []string{"New", "Contact In Progress", "Interested", "Pipeline", "Won", "Lost"}, nil
}

func (fakePlatform) FetchHeroImage(context.Context, string) (string, error) {
	return "https://cdn.example.com/hero.jpg", nil
}

func testConfig(authType string) *config.Config {
	return &config.Config{
		Auth:     config.AuthConfig{Type: authType},
		Security: config.SecurityConfig{MaxBodySizeMB: 1},
		Session:  config.SessionConfig{TTLMinutes: 30},
		Views: config.ViewsConfig{
			RecordLimit:         100,
			PageSizes:           []int{5, 10, 50, 100},
			DefaultPageSize:     10,
			StateRetentionHours: 168,
		},
	}
}

func newTestServer(t *testing.T, authType string) (*Server, *storage.SQLiteStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "server.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	return New(testConfig(authType), store, fakePlatform{}, logger), store
}

func call(t *testing.T, s *Server, method, path, body string, header ...string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t, "none")
	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		code, resp := call(t, s, "GET", path, "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", resp["status"])
	}
}

func TestServer_ListingsViewFlow(t *testing.T) {
	s, _ := newTestServer(t, "none")

	code, resp := call(t, s, "POST", "/api/v1/views/listings/sessions", "")
	require.Equal(t, http.StatusCreated, code)
	sess := resp["session"].(map[string]any)
	id := sess["id"].(string)
	assert.Equal(t, float64(3), sess["pagination"].(map[string]any)["totalPages"])

	code, resp = call(t, s, "POST", "/api/v1/views/listings/sessions/"+id+"/next", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), resp["session"].(map[string]any)["pagination"].(map[string]any)["currentPage"])

	code, resp = call(t, s, "PUT", "/api/v1/views/listings/sessions/"+id+"/filters/City__c", `{"value":"York"}`)
	require.Equal(t, http.StatusOK, code)
	pg := resp["session"].(map[string]any)["pagination"].(map[string]any)
	assert.Equal(t, float64(4), pg["totalRecords"])
	assert.Equal(t, float64(1), pg["currentPage"])

	code, _ = call(t, s, "DELETE", "/api/v1/views/listings/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, code)
}

func TestServer_ListingWidgets(t *testing.T) {
	s, _ := newTestServer(t, "none")

	code, resp := call(t, s, "GET", "/api/v1/listings/a0B1/location", "")
	require.Equal(t, http.StatusOK, code)
	marker := resp["mapMarkers"].([]any)[0].(map[string]any)["location"].(map[string]any)
	assert.Equal(t, "York", marker["City"])

	code, resp = call(t, s, "GET", "/api/v1/listings/a0B1/status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "3", resp["status"].(map[string]any)["currentValue"])

	code, resp = call(t, s, "GET", "/api/v1/listings/a0B1/media", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["images"], 1)

	code, resp = call(t, s, "POST", "/api/v1/listings/a0B1/portals/Rightmove%20UK/actions", `{"action":"Unpublish"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Done", resp["outcome"].(map[string]any)["state"])

	code, _ = call(t, s, "GET", "/api/v1/contacts/fields", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_APIKeyAuth(t *testing.T) {
	s, store := newTestServer(t, "api-key")

	code, resp := call(t, s, "GET", "/api/v1/contacts/fields", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", resp["error"].(map[string]any)["code"])

	key, err := store.CreateAPIKey(context.Background(), "front desk")
	require.NoError(t, err)

	code, _ = call(t, s, "GET", "/api/v1/contacts/fields", "", "X-API-Key", key)
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, s, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, code)
}
