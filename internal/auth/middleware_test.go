package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/listingdesk/internal/storage"
)

type mockValidator struct {
	keys  map[string]*storage.APIKey
	calls int
}

func (m *mockValidator) ValidateAPIKey(_ context.Context, key string) (*storage.APIKey, error) {
	m.calls++
	if apiKey, ok := m.keys[key]; ok {
		return apiKey, nil
	}
	return nil, storage.ErrNotFound
}

func newValidator() *mockValidator {
	return &mockValidator{keys: map[string]*storage.APIKey{
		"ld_key_valid": {ID: "key-123", Name: "front desk"},
	}}
}

func serve(store Validator, setup func(r *http.Request)) (*httptest.ResponseRecorder, context.Context) {
	var captured context.Context
	handler := Middleware(store, func(w http.ResponseWriter, status int, code, message string) {
		w.WriteHeader(status)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Context()
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/contacts/fields", nil)
	setup(req)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestMiddleware_ValidKey(t *testing.T) {
	rec, ctx := serve(newValidator(), func(r *http.Request) {
		r.Header.Set("X-API-Key", "ld_key_valid")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	apiKey := GetAPIKeyFromContext(ctx)
	require.NotNil(t, apiKey)
	assert.Equal(t, "key-123", apiKey.ID)
}

func TestMiddleware_BearerToken(t *testing.T) {
	rec, ctx := serve(newValidator(), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer ld_key_valid")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, GetAPIKeyFromContext(ctx))
}

func TestMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		value      string
		storeCalls int
	}{
		{"missing", "", "", 0},
		{"unknown", "X-API-Key", "ld_key_unknown", 1},
		{"foreign prefix", "X-API-Key", "cf_key_valid", 0},
		{"basic auth", "Authorization", "Basic bGQ6a2V5", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newValidator()
			rec, _ := serve(store, func(r *http.Request) {
				if tt.header != "" {
					r.Header.Set(tt.header, tt.value)
				}
			})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.storeCalls, store.calls)
		})
	}
}

func TestExtractKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "", ExtractKey(req))

	req.Header.Set("Authorization", "Bearer  ld_key_b ")
	assert.Equal(t, "ld_key_b", ExtractKey(req))

	req.Header.Set("X-API-Key", "ld_key_a")
	assert.Equal(t, "ld_key_a", ExtractKey(req))
}

func TestGetAPIKeyFromContext_Empty(t *testing.T) {
	assert.Nil(t, GetAPIKeyFromContext(context.Background()))
}
