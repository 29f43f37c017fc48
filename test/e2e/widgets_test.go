//go:build e2e

package e2e

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestListingsView walks a list-view session and restores it on a fresh server.
func TestListingsView(t *testing.T) {
	key := createTestAPIKey(t, "listings-view")
	base := testCtx.TestServer.URL

	code, body := apiCall(t, base, key, http.MethodPost, "/api/v1/views/listings/sessions", nil)
	require.Equal(t, http.StatusCreated, code)
	sess := object(t, body, "session")
	id := sess["id"].(string)
	pg := object(t, sess, "pagination")
	assert.Equal(t, float64(23), pg["totalRecords"])
	assert.Equal(t, float64(3), pg["totalPages"])
	assert.Equal(t, false, pg["hasPrevious"])

	sessions := "/api/v1/views/listings/sessions/" + id

	t.Run("page forward", func(t *testing.T) {
		code, body := apiCall(t, base, key, http.MethodPost, sessions+"/next", nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(2), object(t, body, "session", "pagination")["currentPage"])
	})

	t.Run("filter resets to first page", func(t *testing.T) {
		code, body := apiCall(t, base, key, http.MethodPut, sessions+"/filters/City__c", map[string]string{"value": "York"})
		require.Equal(t, http.StatusOK, code)
		pg := object(t, body, "session", "pagination")
		assert.Equal(t, float64(3), pg["totalRecords"])
		assert.Equal(t, float64(1), pg["currentPage"])
	})

	t.Run("unsupported page size", func(t *testing.T) {
		code, body := apiCall(t, base, key, http.MethodPut, sessions+"/page-size", map[string]int{"pageSize": 7})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "INVALID_REQUEST", object(t, body, "error")["code"])
	})

	t.Run("state survives a restart", func(t *testing.T) {
		fresh := restartServer(t)
		code, body := apiCall(t, fresh.URL, key, http.MethodGet, sessions, nil)
		require.Equal(t, http.StatusOK, code)
		sess := object(t, body, "session")
		assert.Equal(t, float64(3), object(t, sess, "pagination")["totalRecords"])
		assert.Equal(t, map[string]any{"City__c": "York"}, sess["filters"])
	})

	t.Run("close", func(t *testing.T) {
		code, _ := apiCall(t, base, key, http.MethodDelete, sessions, nil)
		assert.Equal(t, http.StatusNoContent, code)

		code, _ = apiCall(t, base, key, http.MethodGet, sessions, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

// TestLeadsView checks the second view opens with its own session.
func TestLeadsView(t *testing.T) {
	key := createTestAPIKey(t, "leads-view")

	code, body := apiCall(t, testCtx.TestServer.URL, key, http.MethodPost, "/api/v1/views/leads/sessions", nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(10), object(t, body, "session", "pagination")["pageSize"])

	code, _ = apiCall(t, testCtx.TestServer.URL, key, http.MethodPost, "/api/v1/views/offers/sessions", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

// TestPortals covers the portal list, an unpublish and the region board.
func TestPortals(t *testing.T) {
	key := createTestAPIKey(t, "portals")
	base := testCtx.TestServer.URL

	t.Run("list", func(t *testing.T) {
		code, body := apiCall(t, base, key, http.MethodGet, "/api/v1/listings/a0B001/portals", nil)
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, body["data"], 2)
	})

	t.Run("unpublish skips the listing fetch", func(t *testing.T) {
		before := testCtx.Platform.called("fetchListing")
		path := "/api/v1/listings/a0B001/portals/" + url.PathEscape("Rightmove UK") + "/actions"
		code, body := apiCall(t, base, key, http.MethodPost, path, map[string]string{"action": "Unpublish"})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Done", object(t, body, "outcome")["state"])
		assert.Equal(t, before, testCtx.Platform.called("fetchListing"))
	})

	t.Run("region board", func(t *testing.T) {
		code, body := apiCall(t, base, key, http.MethodPost, "/api/v1/listings/a0B001/region-portals/sessions", nil)
		require.Equal(t, http.StatusCreated, code)
		board := object(t, body, "board")
		sid, _ := board["id"].(string)
		require.NotEmpty(t, sid)

		code, _ = apiCall(t, base, key, http.MethodGet, "/api/v1/listings/a0B001/region-portals/sessions/"+sid, nil)
		assert.Equal(t, http.StatusOK, code)

		code, _ = apiCall(t, base, key, http.MethodGet, "/api/v1/listings/a0B999/region-portals/sessions/"+sid, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

// TestListingWidgets covers status, location and media for one listing.
func TestListingWidgets(t *testing.T) {
	key := createTestAPIKey(t, "listing-widgets")
	base := testCtx.TestServer.URL

	t.Run("status", func(t *testing.T) {
		code, body := apiCall(t, base, key, http.MethodGet, "/api/v1/listings/a0B001/status", nil)
		require.Equal(t, http.StatusOK, code)
		status := object(t, body, "status")
		assert.Equal(t, "3", status["currentValue"])
		assert.Len(t, status["steps"], 6)
	})

	t.Run("status rejects unknown label", func(t *testing.T) {
		code, _ := apiCall(t, base, key, http.MethodPut, "/api/v1/listings/a0B001/status", map[string]string{"label": "Sold"})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("location", func(t *testing.T) {
		code, body := apiCall(t, base, key, http.MethodGet, "/api/v1/listings/a0B001/location", nil)
		require.Equal(t, http.StatusOK, code)
		markers := body["mapMarkers"].([]any)
		require.Len(t, markers, 1)
		loc := markers[0].(map[string]any)["location"].(map[string]any)
		assert.Equal(t, "York", loc["City"])
		assert.Equal(t, "YO1 7HH", loc["PostalCode"])
	})

	t.Run("media", func(t *testing.T) {
		code, body := apiCall(t, base, key, http.MethodGet, "/api/v1/listings/a0B001/media", nil)
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, body["images"], 2)

		code, body = apiCall(t, base, key, http.MethodPost, "/api/v1/listings/a0B001/media/reorder", map[string]int{"from": 0, "to": 1})
		require.Equal(t, http.StatusOK, code)
		images := body["images"].([]any)
		require.Len(t, images, 2)
		assert.Equal(t, "m2", images[0].(map[string]any)["id"])

		code, body = apiCall(t, base, key, http.MethodGet, "/api/v1/listings/a0B001/hero-image", nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "https://cdn.example.com/hero.jpg", body["imageUrl"])
	})
}

// TestContacts covers create and the duplicate short-circuit.
func TestContacts(t *testing.T) {
	key := createTestAPIKey(t, "contacts")
	base := testCtx.TestServer.URL

	t.Run("create", func(t *testing.T) {
		code, body := apiCall(t, base, key, http.MethodPost, "/api/v1/contacts/", map[string]any{
			"fields": map[string]any{"LastName": "Smith", "Email": "new@example.com"},
		})
		require.Equal(t, http.StatusCreated, code)
		assert.Equal(t, "003NEW", object(t, body, "result", "navigation")["recordId"])
	})

	t.Run("duplicate", func(t *testing.T) {
		before := testCtx.Platform.called("createRecord")
		code, body := apiCall(t, base, key, http.MethodPost, "/api/v1/contacts/", map[string]any{
			"fields": map[string]any{"LastName": "Dup", "Email": "dup@example.com"},
		})
		require.Equal(t, http.StatusConflict, code)
		assert.Len(t, object(t, body, "result")["duplicates"], 1)
		assert.Equal(t, before, testCtx.Platform.called("createRecord"))
	})
}
