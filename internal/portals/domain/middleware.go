package domain

import (
	"context"
	"log/slog"
	"time"

	"github.com/pendergraft/listingdesk/internal/publish"
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

func (m *loggingMiddleware) ListPortals(ctx context.Context, listingID string) ([]Row, error) {
	start := time.Now()
	rows, err := m.next.ListPortals(ctx, listingID)
	m.logger.Debug("ListPortals",
		"listing", listingID,
		"count", len(rows),
		"duration", time.Since(start),
		"error", err,
	)
	return rows, err
}

func (m *loggingMiddleware) Execute(ctx context.Context, listingID, portal, action string) (*publish.Outcome, error) {
	start := time.Now()
	out, err := m.next.Execute(ctx, listingID, portal, action)
	attrs := []any{
		"listing", listingID,
		"portal", portal,
		"action", action,
		"duration", time.Since(start),
		"error", err,
	}
	if out != nil {
		attrs = append(attrs, "state", out.State, "reason", out.Reason)
	}
	m.logger.Info("Execute", attrs...)
	return out, err
}

func (m *loggingMiddleware) OpenBoard(ctx context.Context, listingID string) (*Board, error) {
	start := time.Now()
	b, err := m.next.OpenBoard(ctx, listingID)
	m.logger.Info("OpenBoard",
		"listing", listingID,
		"duration", time.Since(start),
		"error", err,
	)
	return b, err
}

func (m *loggingMiddleware) GetBoard(ctx context.Context, boardID string) (*Board, error) {
	start := time.Now()
	b, err := m.next.GetBoard(ctx, boardID)
	m.logger.Debug("GetBoard",
		"board", boardID,
		"duration", time.Since(start),
		"error", err,
	)
	return b, err
}

func (m *loggingMiddleware) ToggleBoardRow(ctx context.Context, boardID, rowID string) (*Board, error) {
	start := time.Now()
	b, err := m.next.ToggleBoardRow(ctx, boardID, rowID)
	m.logger.Info("ToggleBoardRow",
		"board", boardID,
		"row", rowID,
		"duration", time.Since(start),
		"error", err,
	)
	return b, err
}
