package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/listingdesk/internal/contacts/domain"
	"github.com/pendergraft/listingdesk/pkg/client"
)

type mockService struct {
	res *domain.Result
	err error
	got map[string]any
}

func (m *mockService) Fields(context.Context) []string {
	return []string{"LastName", "Email"}
}

func (m *mockService) Create(_ context.Context, fields map[string]any) (*domain.Result, error) {
	m.got = fields
	return m.res, m.err
}

func setupRouter(svc Service) *chi.Mux {
	r := chi.NewRouter()
	h := NewHandler(svc)
	r.Route("/contacts", func(r chi.Router) {
		h.RegisterReadRoutes(r)
		h.RegisterWriteRoutes(r)
	})
	return r
}

func TestHandler_Fields(t *testing.T) {
	router := setupRouter(&mockService{})

	req := httptest.NewRequest("GET", "/contacts/fields", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []any{"LastName", "Email"}, resp["fields"])
}

func TestHandler_Create(t *testing.T) {
	tests := []struct {
		name   string
		svc    *mockService
		body   string
		status int
	}{
		{
			name:   "created",
			svc:    &mockService{res: &domain.Result{Navigation: &domain.Navigation{Type: "standard__recordPage", RecordID: "003A"}}},
			body:   `{"fields":{"LastName":"Holmes"}}`,
			status: http.StatusCreated,
		},
		{
			name:   "duplicates",
			svc:    &mockService{res: &domain.Result{Duplicates: []client.Record{{"Id": "003B"}}, Columns: domain.DuplicateColumns}},
			body:   `{"fields":{"Email":"a@example.com"}}`,
			status: http.StatusConflict,
		},
		{
			name:   "empty fields",
			svc:    &mockService{},
			body:   `{"fields":{}}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid json",
			svc:    &mockService{},
			body:   `nope`,
			status: http.StatusBadRequest,
		},
		{
			name:   "platform failure",
			svc:    &mockService{err: domain.ErrFailed},
			body:   `{"fields":{"LastName":"Holmes"}}`,
			status: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(tt.svc)
			req := httptest.NewRequest("POST", "/contacts/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp, "notifications")
		})
	}
}
