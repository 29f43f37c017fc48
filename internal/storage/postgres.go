package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	-- List-view sessions
	CREATE TABLE IF NOT EXISTS view_states (
		id TEXT PRIMARY KEY,
		view TEXT NOT NULL,
		filters JSONB NOT NULL DEFAULT '{}'::jsonb,
		page_size INTEGER NOT NULL,
		current_page INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);

	-- API keys
	CREATE TABLE IF NOT EXISTS api_keys (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		key_hash TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		last_used_at TIMESTAMPTZ,
		revoked_at TIMESTAMPTZ
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_view_states_updated ON view_states(updated_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("database migrations complete")
	return nil
}

// SaveViewState upserts a view state
func (s *PostgresStore) SaveViewState(ctx context.Context, st *ViewState) error {
	if err := checkViewState(st); err != nil {
		return err
	}
	filters, err := encodeFilters(st.Filters)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO view_states (id, view, filters, page_size, current_page, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			view = EXCLUDED.view,
			filters = EXCLUDED.filters,
			page_size = EXCLUDED.page_size,
			current_page = EXCLUDED.current_page,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, st.ID, st.View, filters, st.PageSize, st.CurrentPage)
	if err != nil {
		return fmt.Errorf("saving view state: %w", err)
	}
	return nil
}

// GetViewState retrieves a view state by session id
func (s *PostgresStore) GetViewState(ctx context.Context, id string) (*ViewState, error) {
	var st ViewState
	var filters string
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT id, view, filters::text, page_size, current_page, updated_at FROM view_states WHERE id = $1", id,
	).Scan(&st.ID, &st.View, &filters, &st.PageSize, &st.CurrentPage, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading view state: %w", err)
	}
	st.UpdatedAt = formatTimestamp(updatedAt)
	if st.Filters, err = decodeFilters(filters); err != nil {
		return nil, err
	}
	return &st, nil
}

// DeleteViewState removes a view state
func (s *PostgresStore) DeleteViewState(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM view_states WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeViewStates deletes view states last updated before the cutoff
func (s *PostgresStore) PurgeViewStates(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM view_states WHERE updated_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("purging view states: %w", err)
	}
	return res.RowsAffected()
}

// CreateAPIKey creates a new API key
func (s *PostgresStore) CreateAPIKey(ctx context.Context, name string) (string, error) {
	key := generateAPIKey()
	hash := hashAPIKey(key)
	id := generateID()
	_, err := s.db.ExecContext(ctx, "INSERT INTO api_keys (id, key_hash, name) VALUES ($1, $2, $3)", id, hash, name)
	if err != nil {
		return "", err
	}
	return key, nil
}

// ValidateAPIKey validates an API key
func (s *PostgresStore) ValidateAPIKey(ctx context.Context, key string) (*APIKey, error) {
	hash := hashAPIKey(key)
	var ak APIKey
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, "SELECT id, key_hash, name, created_at FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL", hash).Scan(
		&ak.ID, &ak.KeyHash, &ak.Name, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ak.CreatedAt = formatTimestamp(createdAt)
	// Update last used
	_, _ = s.db.ExecContext(ctx, "UPDATE api_keys SET last_used_at = NOW() WHERE id = $1", ak.ID)
	return &ak, nil
}

// ListAPIKeys lists all API keys
func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at, last_used_at FROM api_keys WHERE revoked_at IS NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var createdAt time.Time
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &createdAt, &lastUsed); err != nil {
			return nil, err
		}
		k.CreatedAt = formatTimestamp(createdAt)
		if lastUsed.Valid {
			k.LastUsedAt = formatTimestamp(lastUsed.Time)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RevokeAPIKey revokes an API key
func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE api_keys SET revoked_at = NOW() WHERE id = $1", id)
	return err
}
