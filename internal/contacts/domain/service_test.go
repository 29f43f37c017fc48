package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/listingdesk/internal/notify"
	"github.com/pendergraft/listingdesk/pkg/client"
)

type mockPlatform struct {
	fields    []string
	fieldsErr error
	dups      []client.Record
	dupErr    error
	createErr error

	dupArgs []string
	created map[string]any
}

func (m *mockPlatform) FetchContactFields(context.Context) ([]string, error) {
	return m.fields, m.fieldsErr
}

func (m *mockPlatform) FindDuplicate(_ context.Context, email, phone, mobile string) ([]client.Record, error) {
	m.dupArgs = []string{email, phone, mobile}
	return m.dups, m.dupErr
}

func (m *mockPlatform) CreateRecord(_ context.Context, objectType string, fields map[string]any) (client.Record, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = fields
	return client.Record{"Id": "003000000000001"}, nil
}

func newTestService(p Platform) Service {
	return NewService(p, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestService_Fields(t *testing.T) {
	svc := newTestService(&mockPlatform{fields: []string{"FirstName", "LastName", "Email"}})
	assert.Equal(t, []string{"FirstName", "LastName", "Email"}, svc.Fields(context.Background()))
}

func TestService_FieldsFailureIsNonFatal(t *testing.T) {
	svc := newTestService(&mockPlatform{fieldsErr: errors.New("boom")})
	fields := svc.Fields(context.Background())
	assert.NotNil(t, fields)
	assert.Empty(t, fields)
}

func TestService_CreateWithoutDuplicates(t *testing.T) {
	p := &mockPlatform{}
	svc := newTestService(p)

	res, err := svc.Create(context.Background(), map[string]any{
		"LastName":    "Holmes",
		"Email":       "sherlock@example.com",
		"Phone":       "020 7946 0000",
		"MobilePhone": "07700 900000",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sherlock@example.com", "020 7946 0000", "07700 900000"}, p.dupArgs)
	assert.Equal(t, "Holmes", p.created["LastName"])
	assert.Empty(t, res.Duplicates)
	assert.Equal(t, &Navigation{
		Type:          "standard__recordPage",
		RecordID:      "003000000000001",
		ObjectAPIName: "Contact",
		ActionName:    "view",
	}, res.Navigation)
}

func TestService_CreateEmptyDuplicateListCreates(t *testing.T) {
	p := &mockPlatform{dups: []client.Record{}}
	svc := newTestService(p)

	res, err := svc.Create(context.Background(), map[string]any{"LastName": "Watson"})
	require.NoError(t, err)
	require.NotNil(t, res.Navigation)
	assert.NotNil(t, p.created)
}

func TestService_CreateReturnsDuplicates(t *testing.T) {
	p := &mockPlatform{dups: []client.Record{{"Id": "003A", "Name": "Mrs Hudson", "Email": "hudson@example.com"}}}
	svc := newTestService(p)

	res, err := svc.Create(context.Background(), map[string]any{"Email": "hudson@example.com"})
	require.NoError(t, err)

	assert.Nil(t, res.Navigation)
	assert.Nil(t, p.created, "no create when duplicates exist")
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, DuplicateColumns, res.Columns)
}

func TestService_CreateFailures(t *testing.T) {
	tests := []struct {
		name string
		p    *mockPlatform
	}{
		{"duplicate check", &mockPlatform{dupErr: &client.APIError{Code: "INTERNAL", Message: "search failed"}}},
		{"create", &mockPlatform{createErr: &client.APIError{Code: "INTERNAL", Message: "search failed"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.p)
			ctx, notes := notify.Collect(context.Background())

			_, err := svc.Create(ctx, map[string]any{"LastName": "Moriarty"})
			assert.ErrorIs(t, err, ErrFailed)

			got := notes.Drain()
			require.Len(t, got, 1)
			assert.Equal(t, "search failed", got[0].Message)
		})
	}
}

func TestService_CreateRejectsBadFieldKey(t *testing.T) {
	p := &mockPlatform{}
	svc := newTestService(p)

	_, err := svc.Create(context.Background(), map[string]any{"Last Name": "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Nil(t, p.dupArgs)
}
