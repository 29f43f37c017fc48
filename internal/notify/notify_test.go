package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Drain(t *testing.T) {
	var c Collector
	assert.Equal(t, []Notification{}, c.Drain())

	Success(context.Background(), &c, "Success", "done")
	Error(context.Background(), &c, "Error", "failed")

	got := c.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, Notification{Title: "Success", Message: "done", Severity: SeveritySuccess}, got[0])
	assert.Equal(t, SeverityError, got[1].Severity)
	assert.Empty(t, c.Drain())
}

func TestContextual_RoutesToRequestNotifier(t *testing.T) {
	var fallback Collector
	n := Contextual{Fallback: &fallback}

	ctx, req := Collect(context.Background())
	Success(ctx, n, "Success", "to request")
	Success(context.Background(), n, "Success", "to fallback")

	assert.Len(t, req.Drain(), 1)
	fb := fallback.Drain()
	require.Len(t, fb, 1)
	assert.Equal(t, "to fallback", fb[0].Message)
}

func TestContextual_NoFallback(t *testing.T) {
	n := Contextual{}
	assert.NotPanics(t, func() {
		Error(context.Background(), n, "Error", "dropped")
	})
}

func TestFunc(t *testing.T) {
	var got Notification
	n := Func(func(_ context.Context, x Notification) { got = x })
	Error(context.Background(), n, "Error", "boom")
	assert.Equal(t, "boom", got.Message)
	assert.Nil(t, FromContext(context.Background()))
}
