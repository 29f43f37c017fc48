// Package notify carries user-visible notifications (toasts) from widgets to their host.
package notify

import (
	"context"
	"sync"
)

// Severity is the visual variant of a notification.
type Severity string

// Notification severities.
const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is a single toast.
type Notification struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Notifier receives notifications emitted by a widget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a plain function to a Notifier.
type Func func(ctx context.Context, n Notification)

// Notify calls f.
func (f Func) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, Notification) {})

// Success sends a success toast.
func Success(ctx context.Context, n Notifier, title, message string) {
	n.Notify(ctx, Notification{Title: title, Message: message, Severity: SeveritySuccess})
}

// Error sends an error toast.
func Error(ctx context.Context, n Notifier, title, message string) {
	n.Notify(ctx, Notification{Title: title, Message: message, Severity: SeverityError})
}

// Collector accumulates notifications until drained. Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

// Notify appends n.
func (c *Collector) Notify(_ context.Context, n Notification) {
	c.mu.Lock()
	c.items = append(c.items, n)
	c.mu.Unlock()
}

// Drain returns all collected notifications and clears the collector.
// The result is never nil so it encodes as an empty JSON array.
func (c *Collector) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items
	c.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

type ctxKey struct{}

// WithNotifier returns a child context carrying n. Widgets that are shared across
// requests use it to address the notifier of the request in flight.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns the notifier stored in ctx, or nil.
func FromContext(ctx context.Context) Notifier {
	n, _ := ctx.Value(ctxKey{}).(Notifier)
	return n
}

// Contextual routes each notification to the notifier carried by the context, falling
// back to Fallback when the context carries none.
type Contextual struct {
	Fallback Notifier
}

// Notify dispatches n.
func (c Contextual) Notify(ctx context.Context, n Notification) {
	if target := FromContext(ctx); target != nil {
		target.Notify(ctx, n)
		return
	}
	if c.Fallback != nil {
		c.Fallback.Notify(ctx, n)
	}
}

// Collect returns a child context whose notifications accumulate in the returned Collector.
func Collect(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return WithNotifier(ctx, c), c
}
