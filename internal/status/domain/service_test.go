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
)

const listingID = "a0B000000000001"

var picklist = []string{"New", "Contact In Progress", "Interested", "Pipeline", "Won", "Lost"}

type mockPlatform struct {
	status    string
	statusErr error
	values    []string
	valuesErr error
	updateErr error

	updates []map[string]any
}

func (m *mockPlatform) FetchStatus(context.Context, string) (string, error) {
	return m.status, m.statusErr
}

func (m *mockPlatform) FetchStatusValues(context.Context) ([]string, error) {
	return m.values, m.valuesErr
}

func (m *mockPlatform) UpdateRecordField(_ context.Context, _ string, fields map[string]any) error {
	m.updates = append(m.updates, fields)
	if m.updateErr != nil {
		return m.updateErr
	}
	m.status = fields[FieldSubStatus].(string)
	return nil
}

func newTestService(p Platform) Service {
	return NewService(p, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStepValue(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"New", "1"},
		{"Contact In Progress", "2"},
		{"Interested", "3"},
		{"Pipeline", "4"},
		{"Won", "5"},
		{"Lost", "6"},
		{"Archived", UnknownStep},
		{"", UnknownStep},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StepValue(tt.status), tt.status)
	}
}

func TestStepClass(t *testing.T) {
	assert.Equal(t, ClassCompleted, StepClass("3", "1"))
	assert.Equal(t, ClassCurrent, StepClass("3", "3"))
	assert.Equal(t, ClassUpcoming, StepClass("3", "4"))
	assert.Equal(t, ClassUpcoming, StepClass(UnknownStep, "1"))
}

func TestService_Get(t *testing.T) {
	svc := newTestService(&mockPlatform{status: "Interested", values: picklist})

	p, err := svc.Get(context.Background(), listingID)
	require.NoError(t, err)
	assert.Equal(t, "Interested", p.Selected)
	assert.Equal(t, "3", p.Current)
	require.Len(t, p.Steps, 6)
	assert.Equal(t, Step{Label: "New", Value: "1", Class: ClassCompleted}, p.Steps[0])
	assert.Equal(t, ClassCurrent, p.Steps[2].Class)
	assert.Equal(t, ClassUpcoming, p.Steps[5].Class)
}

func TestService_GetUnknownStatus(t *testing.T) {
	svc := newTestService(&mockPlatform{status: "Archived", values: picklist})

	p, err := svc.Get(context.Background(), listingID)
	require.NoError(t, err)
	assert.Equal(t, UnknownStep, p.Current)
	for _, s := range p.Steps {
		assert.Equal(t, ClassUpcoming, s.Class)
	}
}

func TestService_GetStatusFailureNotifies(t *testing.T) {
	svc := newTestService(&mockPlatform{statusErr: errors.New("down"), values: picklist})

	ctx, notes := notify.Collect(context.Background())
	p, err := svc.Get(ctx, listingID)
	require.NoError(t, err)
	assert.Equal(t, UnknownStep, p.Current)
	assert.Len(t, p.Steps, 6)

	got := notes.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "Error fetching inquiry status", got[0].Message)
	assert.Equal(t, notify.SeverityError, got[0].Severity)
}

func TestService_GetPicklistFailureIsEmpty(t *testing.T) {
	svc := newTestService(&mockPlatform{status: "New", valuesErr: errors.New("down")})

	p, err := svc.Get(context.Background(), listingID)
	require.NoError(t, err)
	assert.Empty(t, p.Steps)
	assert.Equal(t, "1", p.Current)
}

func TestService_Set(t *testing.T) {
	m := &mockPlatform{status: "New", values: picklist}
	svc := newTestService(m)

	ctx, notes := notify.Collect(context.Background())
	p, err := svc.Set(ctx, listingID, "Pipeline")
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{{FieldSubStatus: "Pipeline"}}, m.updates)
	assert.Equal(t, "Pipeline", p.Selected)
	assert.Equal(t, "4", p.Current)

	got := notes.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "Listing Sub status updated successfully", got[0].Message)
}

func TestService_SetFailureKeepsSelection(t *testing.T) {
	m := &mockPlatform{status: "New", values: picklist, updateErr: errors.New("locked")}
	svc := newTestService(m)

	ctx, notes := notify.Collect(context.Background())
	p, err := svc.Set(ctx, listingID, "Won")
	assert.ErrorIs(t, err, ErrFailed)
	require.NotNil(t, p)
	assert.Equal(t, "Won", p.Selected)
	assert.Equal(t, "5", p.Current)
	assert.Equal(t, "Error updating Listing Sub status", notes.Drain()[0].Message)
}

func TestService_SetValidation(t *testing.T) {
	m := &mockPlatform{status: "New", values: picklist}
	svc := newTestService(m)

	tests := []struct {
		name  string
		id    string
		label string
	}{
		{"empty label", listingID, "  "},
		{"unknown label", listingID, "Closed"},
		{"bad id", "not an id!", "New"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Set(context.Background(), tt.id, tt.label)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, m.updates)
}
