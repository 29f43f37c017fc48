package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Config holds all configuration for the widget host
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Security  SecurityConfig
	Platform  PlatformConfig
	Metrics   MetricsConfig
	Session   SessionConfig
	Views     ViewsConfig
	Media     MediaConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	Host           string
	ReadTimeout    int // seconds
	WriteTimeout   int // seconds
	IdleTimeout    int // seconds
	RequestTimeout int // seconds
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type     string // "sqlite" or "postgres"
	Postgres PostgresConfig
	SQLite   SQLiteConfig
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	URL string
}

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path string
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	Type string // "none" or "api-key"
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	BurstSize      int
	CleanupMinutes int
}

// SecurityConfig holds request hardening settings
type SecurityConfig struct {
	MaxBodySizeMB int
}

// PlatformConfig points at the listing platform's RPC endpoint
type PlatformConfig struct {
	URL            string
	Token          string
	TimeoutSeconds int
	// RPS limits outbound calls; 0 disables the limiter.
	RPS   float64
	Burst int
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
}

// SessionConfig controls widget session lifetime
type SessionConfig struct {
	TTLMinutes int
}

// ViewsConfig parameterizes the list views
type ViewsConfig struct {
	RecordLimit     int
	PageSizes       []int
	DefaultPageSize int
	// StateRetentionHours is how long persisted view state survives without updates.
	StateRetentionHours int
}

// MediaConfig holds media gallery settings
type MediaConfig struct {
	DownloadPrefix string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	pageSizes, err := getEnvIntSlice("VIEW_PAGE_SIZES", []int{5, 10, 50, 100})
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("PORT", 8080),
			Host:           getEnv("HOST", "0.0.0.0"),
			ReadTimeout:    getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout:   getEnvInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:    getEnvInt("SERVER_IDLE_TIMEOUT", 120),
			RequestTimeout: getEnvInt("SERVER_REQUEST_TIMEOUT", 30),
		},
		Storage: StorageConfig{
			Type: getEnv("STORAGE_TYPE", "sqlite"),
			Postgres: PostgresConfig{
				URL: getEnv("DATABASE_URL", ""),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", "./data/listingdesk.db"),
			},
		},
		Auth: AuthConfig{
			Type: getEnv("AUTH_TYPE", "none"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin: getEnvInt("RATE_LIMIT_RPM", 300),
			BurstSize:      getEnvInt("RATE_LIMIT_BURST", 50),
			CleanupMinutes: getEnvInt("RATE_LIMIT_CLEANUP_MINUTES", 10),
		},
		Security: SecurityConfig{
			MaxBodySizeMB: getEnvInt("MAX_BODY_SIZE_MB", 25),
		},
		Platform: PlatformConfig{
			URL:            getEnv("PLATFORM_URL", ""),
			Token:          getEnv("PLATFORM_TOKEN", ""),
			TimeoutSeconds: getEnvInt("PLATFORM_TIMEOUT_SECONDS", 30),
			RPS:            getEnvFloat("PLATFORM_RPS", 0),
			Burst:          getEnvInt("PLATFORM_BURST", 10),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
		Session: SessionConfig{
			TTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 30),
		},
		Views: ViewsConfig{
			RecordLimit:         getEnvInt("VIEW_RECORD_LIMIT", 100),
			PageSizes:           pageSizes,
			DefaultPageSize:     getEnvInt("VIEW_DEFAULT_PAGE_SIZE", 10),
			StateRetentionHours: getEnvInt("VIEW_STATE_RETENTION_HOURS", 168),
		},
		Media: MediaConfig{
			DownloadPrefix: getEnv("MEDIA_DOWNLOAD_PREFIX", "/sfc/servlet.shepherd/document/download/"),
		},
	}

	// If DATABASE_URL is set, default to postgres
	if cfg.Storage.Postgres.URL != "" && cfg.Storage.Type == "sqlite" {
		cfg.Storage.Type = "postgres"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Type {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_TYPE %q", c.Storage.Type))
	}
	switch c.Auth.Type {
	case "none", "api-key":
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_TYPE %q", c.Auth.Type))
	}
	if !slices.Contains(c.Views.PageSizes, c.Views.DefaultPageSize) {
		errs = append(errs, fmt.Errorf("VIEW_DEFAULT_PAGE_SIZE %d is not in VIEW_PAGE_SIZES %v", c.Views.DefaultPageSize, c.Views.PageSizes))
	}
	if c.Views.RecordLimit <= 0 {
		errs = append(errs, errors.New("VIEW_RECORD_LIMIT must be positive"))
	}
	if c.Views.StateRetentionHours <= 0 {
		errs = append(errs, errors.New("VIEW_STATE_RETENTION_HOURS must be positive"))
	}
	if c.Session.TTLMinutes <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_MINUTES must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvIntSlice(key string, defaultValue []int) ([]int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	var result []int
	for _, p := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s entry %q", key, trimmed)
		}
		result = append(result, n)
	}
	if len(result) == 0 {
		return defaultValue, nil
	}
	return result, nil
}
