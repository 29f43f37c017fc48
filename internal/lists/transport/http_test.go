package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/listingdesk/internal/lists/domain"
	"github.com/pendergraft/listingdesk/internal/listview"
	"github.com/pendergraft/listingdesk/internal/notify"
)

// mockService implements Service for testing
type mockService struct {
	sessions map[string]*domain.Session
	fetchErr error
	lastKey  string
	lastVal  string
}

func newMockService() *mockService {
	return &mockService{sessions: make(map[string]*domain.Session)}
}

func (m *mockService) lookup(view, id string) (*domain.Session, error) {
	if view != domain.ViewListings && view != domain.ViewLeads {
		return nil, domain.ErrUnknownView
	}
	s, ok := m.sessions[id]
	if !ok || s.Name != view {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *mockService) Open(ctx context.Context, view string) (*domain.Session, error) {
	if view != domain.ViewListings && view != domain.ViewLeads {
		return nil, domain.ErrUnknownView
	}
	s := &domain.Session{ID: "sess-1", Snapshot: listview.Snapshot{
		Name:       view,
		Filters:    listview.FilterState{},
		Pagination: listview.Pagination{PageSize: 10, CurrentPage: 1, TotalPages: 1},
	}}
	m.sessions[s.ID] = s
	notify.Success(ctx, notify.Contextual{}, "Opened", view)
	return s, nil
}

func (m *mockService) Get(ctx context.Context, view, id string) (*domain.Session, error) {
	return m.lookup(view, id)
}

func (m *mockService) SetFilter(ctx context.Context, view, id, key, value string) (*domain.Session, error) {
	s, err := m.lookup(view, id)
	if err != nil {
		return nil, err
	}
	m.lastKey, m.lastVal = key, value
	s.Filters.Set(key, value)
	if m.fetchErr != nil {
		notify.Error(ctx, notify.Contextual{}, "Error", m.fetchErr.Error())
		return s, fmt.Errorf("%w: %w", domain.ErrFetchFailed, m.fetchErr)
	}
	return s, nil
}

func (m *mockService) ResetFilters(ctx context.Context, view, id string) (*domain.Session, error) {
	s, err := m.lookup(view, id)
	if err != nil {
		return nil, err
	}
	s.Filters = listview.FilterState{}
	return s, nil
}

func (m *mockService) SetPageSize(ctx context.Context, view, id string, size int) (*domain.Session, error) {
	s, err := m.lookup(view, id)
	if err != nil {
		return nil, err
	}
	if size != 5 && size != 10 {
		return s, domain.ErrInvalidPageSize
	}
	s.Pagination.PageSize = size
	return s, nil
}

func (m *mockService) NextPage(ctx context.Context, view, id string) (*domain.Session, error) {
	s, err := m.lookup(view, id)
	if err != nil {
		return nil, err
	}
	s.Pagination.CurrentPage++
	return s, nil
}

func (m *mockService) PreviousPage(ctx context.Context, view, id string) (*domain.Session, error) {
	s, err := m.lookup(view, id)
	if err != nil {
		return nil, err
	}
	s.Pagination.CurrentPage--
	return s, nil
}

func (m *mockService) Close(ctx context.Context, view, id string) error {
	if _, err := m.lookup(view, id); err != nil {
		return err
	}
	delete(m.sessions, id)
	return nil
}

func setupRouter(svc Service) *chi.Mux {
	r := chi.NewRouter()
	h := NewHandler(svc)
	r.Route("/views", func(r chi.Router) {
		h.RegisterReadRoutes(r)
		h.RegisterWriteRoutes(r)
	})
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHandler_Open(t *testing.T) {
	router := setupRouter(newMockService())

	rec, resp := do(t, router, "POST", "/views/listings/sessions", "")

	assert.Equal(t, http.StatusCreated, rec.Code)
	sess := resp["session"].(map[string]any)
	assert.Equal(t, "sess-1", sess["id"])
	assert.Equal(t, "listings", sess["name"])

	notes := resp["notifications"].([]any)
	require.Len(t, notes, 1)
	assert.Equal(t, "Opened", notes[0].(map[string]any)["title"])
}

func TestHandler_OpenUnknownView(t *testing.T) {
	router := setupRouter(newMockService())

	rec, resp := do(t, router, "POST", "/views/properties/sessions", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
	assert.NotNil(t, resp["notifications"])
}

func TestHandler_GetSession(t *testing.T) {
	router := setupRouter(newMockService())
	do(t, router, "POST", "/views/leads/sessions", "")

	rec, _ := do(t, router, "GET", "/views/leads/sessions/sess-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, router, "GET", "/views/listings/sessions/sess-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, "GET", "/views/leads/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Filters(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)
	do(t, router, "POST", "/views/listings/sessions", "")

	rec, resp := do(t, router, "PUT", "/views/listings/sessions/sess-1/filters/Status__c", `{"value":"Active"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Status__c", svc.lastKey)
	assert.Equal(t, "Active", svc.lastVal)
	filters := resp["session"].(map[string]any)["filters"].(map[string]any)
	assert.Equal(t, "Active", filters["Status__c"])

	rec, _ = do(t, router, "DELETE", "/views/listings/sessions/sess-1/filters/Status__c", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", svc.lastVal)

	rec, _ = do(t, router, "DELETE", "/views/listings/sessions/sess-1/filters", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_SetFilterInvalidJSON(t *testing.T) {
	router := setupRouter(newMockService())
	do(t, router, "POST", "/views/listings/sessions", "")

	rec, resp := do(t, router, "PUT", "/views/listings/sessions/sess-1/filters/Status__c", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", resp["error"].(map[string]any)["code"])
}

func TestHandler_FetchFailureKeepsSession(t *testing.T) {
	svc := newMockService()
	router := setupRouter(svc)
	do(t, router, "POST", "/views/listings/sessions", "")
	svc.fetchErr = fmt.Errorf("query failed")

	rec, resp := do(t, router, "PUT", "/views/listings/sessions/sess-1/filters/City__c", `{"value":"London"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.NotNil(t, resp["session"])
	assert.Equal(t, "FETCH_FAILED", resp["error"].(map[string]any)["code"])
	notes := resp["notifications"].([]any)
	require.Len(t, notes, 1)
	assert.Equal(t, "query failed", notes[0].(map[string]any)["message"])
	assert.Equal(t, "error", notes[0].(map[string]any)["severity"])
}

func TestHandler_PageSize(t *testing.T) {
	router := setupRouter(newMockService())
	do(t, router, "POST", "/views/listings/sessions", "")

	rec, resp := do(t, router, "PUT", "/views/listings/sessions/sess-1/page-size", `{"pageSize":5}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	pagination := resp["session"].(map[string]any)["pagination"].(map[string]any)
	assert.Equal(t, float64(5), pagination["pageSize"])

	rec, _ = do(t, router, "PUT", "/views/listings/sessions/sess-1/page-size", `{"pageSize":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Navigation(t *testing.T) {
	router := setupRouter(newMockService())
	do(t, router, "POST", "/views/listings/sessions", "")

	_, resp := do(t, router, "POST", "/views/listings/sessions/sess-1/next", "")
	pagination := resp["session"].(map[string]any)["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["currentPage"])

	_, resp = do(t, router, "POST", "/views/listings/sessions/sess-1/previous", "")
	pagination = resp["session"].(map[string]any)["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["currentPage"])
}

func TestHandler_Close(t *testing.T) {
	router := setupRouter(newMockService())
	do(t, router, "POST", "/views/listings/sessions", "")

	rec, _ := do(t, router, "DELETE", "/views/listings/sessions/sess-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = do(t, router, "DELETE", "/views/listings/sessions/sess-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
