package domain

import (
	"context"
	"log/slog"
	"time"
)

// LoggingMiddleware returns a service middleware that logs all operations.
func LoggingMiddleware(logger *slog.Logger) func(Service) Service {
	return func(next Service) Service {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   Service
	logger *slog.Logger
}

func (m *loggingMiddleware) Open(ctx context.Context, view string) (*Session, error) {
	start := time.Now()
	sess, err := m.next.Open(ctx, view)
	m.logger.Info("Open",
		"view", view,
		"session", sessionID(sess),
		"duration", time.Since(start),
		"error", err,
	)
	return sess, err
}

func (m *loggingMiddleware) OpenWithID(ctx context.Context, view, id string) (*Session, error) {
	start := time.Now()
	sess, err := m.next.OpenWithID(ctx, view, id)
	m.logger.Info("OpenWithID",
		"view", view,
		"session", id,
		"duration", time.Since(start),
		"error", err,
	)
	return sess, err
}

func (m *loggingMiddleware) Get(ctx context.Context, view, id string) (*Session, error) {
	start := time.Now()
	sess, err := m.next.Get(ctx, view, id)
	m.logger.Debug("Get",
		"view", view,
		"session", id,
		"duration", time.Since(start),
		"error", err,
	)
	return sess, err
}

func (m *loggingMiddleware) SetFilter(ctx context.Context, view, id, key, value string) (*Session, error) {
	start := time.Now()
	sess, err := m.next.SetFilter(ctx, view, id, key, value)
	m.logger.Info("SetFilter",
		"view", view,
		"session", id,
		"key", key,
		"value", value,
		"duration", time.Since(start),
		"error", err,
	)
	return sess, err
}

func (m *loggingMiddleware) ResetFilters(ctx context.Context, view, id string) (*Session, error) {
	start := time.Now()
	sess, err := m.next.ResetFilters(ctx, view, id)
	m.logger.Info("ResetFilters",
		"view", view,
		"session", id,
		"duration", time.Since(start),
		"error", err,
	)
	return sess, err
}

func (m *loggingMiddleware) SetPageSize(ctx context.Context, view, id string, size int) (*Session, error) {
	start := time.Now()
	sess, err := m.next.SetPageSize(ctx, view, id, size)
	m.logger.Debug("SetPageSize",
		"view", view,
		"session", id,
		"size", size,
		"duration", time.Since(start),
		"error", err,
	)
	return sess, err
}

func (m *loggingMiddleware) NextPage(ctx context.Context, view, id string) (*Session, error) {
	start := time.Now()
	sess, err := m.next.NextPage(ctx, view, id)
	m.logger.Debug("NextPage",
		"view", view,
		"session", id,
		"duration", time.Since(start),
		"error", err,
	)
	return sess, err
}

func (m *loggingMiddleware) PreviousPage(ctx context.Context, view, id string) (*Session, error) {
	start := time.Now()
	sess, err := m.next.PreviousPage(ctx, view, id)
	m.logger.Debug("PreviousPage",
		"view", view,
		"session", id,
		"duration", time.Since(start),
		"error", err,
	)
	return sess, err
}

func (m *loggingMiddleware) Close(ctx context.Context, view, id string) error {
	start := time.Now()
	err := m.next.Close(ctx, view, id)
	m.logger.Info("Close",
		"view", view,
		"session", id,
		"duration", time.Since(start),
		"error", err,
	)
	return err
}

func (m *loggingMiddleware) PurgeStale(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := m.next.PurgeStale(ctx)
	m.logger.Info("PurgeStale",
		"purged", n,
		"duration", time.Since(start),
		"error", err,
	)
	return n, err
}

func sessionID(s *Session) string {
	if s == nil {
		return ""
	}
	return s.ID
}
