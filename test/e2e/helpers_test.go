//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pendergraft/listingdesk/internal/config"
	"github.com/pendergraft/listingdesk/internal/server"
	"github.com/pendergraft/listingdesk/internal/storage"
	"github.com/pendergraft/listingdesk/pkg/client"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const platformToken = "e2e-platform-token"

// TestContext holds shared test infrastructure
type TestContext struct {
	PostgresContainer *postgres.PostgresContainer
	ConnString        string
	Platform          *fakePlatform
	TestServer        *httptest.Server
	Store             storage.Store
}

// setupPostgresE starts a Postgres container and returns the connection string
func setupPostgresE(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("listingdesk"),
		postgres.WithUsername("listingdesk"),
		postgres.WithPassword("listingdesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = postgresContainer.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	return postgresContainer, connString, nil
}

// fakePlatform speaks the platform RPC protocol with a fixed data set:
// 23 listings (every sixth in York), two portals and a two-image gallery.
type fakePlatform struct {
	*httptest.Server

	mu    sync.Mutex
	calls map[string]int
}

func newFakePlatform() *fakePlatform {
	f := &fakePlatform{calls: map[string]int{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *fakePlatform) called(procedure string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[procedure]
}

func (f *fakePlatform) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("Authorization") != "Bearer "+platformToken {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"INVALID_SESSION_ID","message":"Session expired or invalid"}}`))
		return
	}

	proc := strings.TrimPrefix(r.URL.Path, "/rpc/")
	var params map[string]any
	json.NewDecoder(r.Body).Decode(&params)

	f.mu.Lock()
	f.calls[proc]++
	f.mu.Unlock()

	result, ok := platformResult(proc, params)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"unknown procedure"}}`))
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"result": result})
}

func platformResult(proc string, params map[string]any) (any, bool) {
	switch proc {
	case "fetchFilteredRecords":
		filters, _ := params["filters"].(map[string]any)
		var recs []map[string]any
		for i := 1; i <= 23; i++ {
			city := "Leeds"
			if i%6 == 0 {
				city = "York"
			}
			if want, ok := filters["City__c"]; ok && want != city {
				continue
			}
			recs = append(recs, map[string]any{
				"Id":      fmt.Sprintf("a0B%03d", i),
				"Name":    fmt.Sprintf("Listing %d", i),
				"City__c": city,
			})
		}
		return recs, true
	case "fetchFilterFields":
		return []map[string]any{{"apiName": "City__c", "label": "City", "type": "STRING"}}, true
	case "fetchTableColumns":
		return []map[string]any{
			{"apiName": "Name", "label": "Listing Name"},
			{"apiName": "City__c", "label": "City"},
		}, true
	case "fetchContactFields":
		return []string{"FirstName", "LastName", "Email"}, true
	case "findDuplicate":
		if params["email"] == "dup@example.com" {
			return []map[string]any{{"Id": "003OLD", "Name": "Jo Dup", "Email": "dup@example.com"}}, true
		}
		return nil, true
	case "createRecord":
		return map[string]any{"Id": "003NEW"}, true
	case "listPortals":
		return []map[string]any{
			{"portalName": "Rightmove UK", "PortalStatus": "Active", "isPublishedOnPortal": true},
			{"portalName": "Zoopla UK", "PortalStatus": "Inactive", "isPublishedOnPortal": false},
		}, true
	case "listRegionPortals":
		return []map[string]any{{"Id": "rp1", "portalName": "Rightmove UK", "portalStatus": "Active"}}, true
	case "fetchPortalFieldSettings":
		return []map[string]any{}, true
	case "fetchListing":
		return map[string]any{
			"Id":                  params["listingId"],
			"City__c":             "York",
			"Country__c":          "United Kingdom",
			"os_PostalCode_pb__c": "YO1 7HH",
			"os_State_pb__c":      "North Yorkshire",
			"os_Street_pb__c":     "1 Minster Yard",
		}, true
	case "checkMediaPresence":
		return "Listing has media", true
	case "publishOrUnpublish":
		return map[string]any{"isSuccess": true}, true
	case "fetchStatus":
		return "Interested", true
	case "fetchStatusValues":
		return []string{"New", "Contact In Progress", "Interested", "Pipeline", "Won", "Lost"}, true
	case "updateRecordField", "uploadFile", "reorderFiles":
		return nil, true
	case "listFiles":
		return []map[string]any{
			{"Id": "m1", "ContentDocumentId__c": "069A"},
			{"Id": "m2", "ContentDocumentId__c": "069B"},
		}, true
	case "fetchHeroImage":
		return "https://cdn.example.com/hero.jpg", true
	}
	return nil, false
}

// testConfig is the server configuration used by every e2e server.
func testConfig(connString string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Storage: config.StorageConfig{
			Type: "postgres",
			Postgres: config.PostgresConfig{
				URL: connString,
			},
		},
		Auth:      config.AuthConfig{Type: "api-key"},
		Logging:   config.LoggingConfig{Level: "debug", Format: "text"},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Security:  config.SecurityConfig{MaxBodySizeMB: 50},
		Session:   config.SessionConfig{TTLMinutes: 30},
		Views: config.ViewsConfig{
			RecordLimit:         100,
			PageSizes:           []int{5, 10, 50, 100},
			DefaultPageSize:     10,
			StateRetentionHours: 168,
		},
	}
}

// startServerE starts the listingdesk server in-process against Postgres and the platform.
func startServerE(connString, platformURL string) (*httptest.Server, storage.Store, error) {
	cfg := testConfig(connString)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	srv := server.New(cfg, store, client.New(platformURL, platformToken), logger)
	return httptest.NewServer(srv.Handler()), store, nil
}

// restartServer starts a second server on the shared store, with empty in-memory sessions.
func restartServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(testConfig(testCtx.ConnString), testCtx.Store, client.New(testCtx.Platform.URL, platformToken), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// createTestAPIKey creates a test API key using the store directly
func createTestAPIKey(t *testing.T, name string) string {
	t.Helper()
	key, err := testCtx.Store.CreateAPIKey(context.Background(), name)
	require.NoError(t, err, "Failed to create API key")
	return key
}

// apiCall sends a JSON request with the API key and decodes the JSON response.
func apiCall(t *testing.T, baseURL, apiKey, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

// object walks nested JSON objects by key.
func object(t *testing.T, v map[string]any, keys ...string) map[string]any {
	t.Helper()
	for _, k := range keys {
		next, ok := v[k].(map[string]any)
		require.True(t, ok, "missing object %q in %v", k, v)
		v = next
	}
	return v
}
