package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pendergraft/listingdesk/internal/config"
	"github.com/pendergraft/listingdesk/internal/observability/metrics"
	"github.com/pendergraft/listingdesk/internal/server"
	"github.com/pendergraft/listingdesk/internal/storage"
	"github.com/pendergraft/listingdesk/pkg/client"
)

var version = "dev"

// purgeInterval is how often a running server drops expired view state.
const purgeInterval = time.Hour

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "listingdesk-server",
		Short:         "HTTP host for the listing widgets",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})
	rootCmd.AddCommand(newPurgeCmd())
	rootCmd.AddCommand(newKeysCmd())

	return rootCmd
}

// openStore loads config and opens the migrated store. Logs below level are dropped.
func openStore(ctx context.Context, level slog.Level) (*config.Config, storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return cfg, store, nil
}

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete persisted list-view state past its retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(cmd.Context(), slog.LevelError)
			if err != nil {
				return err
			}
			defer store.Close()

			before := time.Now().Add(-time.Duration(cfg.Views.StateRetentionHours) * time.Hour)
			n, err := store.PurgeViewStates(cmd.Context(), before)
			if err != nil {
				return fmt.Errorf("purging view state: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d view state record(s) not updated since %s\n", n, before.Format(time.RFC3339))
			return nil
		},
	}
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys for /api/v1",
	}

	cmd.AddCommand(newKeysCreateCmd())
	cmd.AddCommand(newKeysListCmd())
	cmd.AddCommand(newKeysRevokeCmd())

	return cmd
}

func newKeysCreateCmd() *cobra.Command {
	var name, outputFile string
	var quiet, show bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long: `Create a new API key for widget hosts calling /api/v1.

The key is written to ./listingdesk-key-<name>.txt unless --output, --quiet or --show
is given. It is only shown once.

EXAMPLES:
  listingdesk-server keys create --name front-desk
  listingdesk-server keys create --name front-desk --output /secure/path/key.txt
  listingdesk-server keys create --name front-desk --quiet | vault kv put secret/listingdesk key=-
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore(cmd.Context(), slog.LevelError)
			if err != nil {
				return err
			}
			defer store.Close()

			key, err := store.CreateAPIKey(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("creating API key: %w", err)
			}
			return writeKey(cmd.OutOrStdout(), name, key, outputFile, quiet, show)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "label for the key (required)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write key to file (default: ./listingdesk-key-{name}.txt)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the key")
	cmd.Flags().BoolVar(&show, "show", false, "display the key on screen")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func writeKey(out io.Writer, name, key, outputFile string, quiet, show bool) error {
	switch {
	case quiet:
		fmt.Fprintln(out, key)
		return nil
	case show:
		fmt.Fprintf(out, "API key %s (it cannot be retrieved later):\n\n    %s\n\n", name, key)
		return nil
	}

	if outputFile == "" {
		outputFile = fmt.Sprintf("./listingdesk-key-%s.txt", name)
	}
	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	if err := os.WriteFile(outputFile, []byte(key+"\n"), 0600); err != nil {
		return fmt.Errorf("writing key to file: %w", err)
	}

	fmt.Fprintf(out, "API key created: %s\n", name)
	fmt.Fprintf(out, "   Written to: %s (mode 0600)\n\n", outputFile)
	fmt.Fprintf(out, "   curl -H \"X-API-Key: $(cat %s)\" http://localhost:8080/api/v1/contacts/fields\n", outputFile)
	return nil
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore(cmd.Context(), slog.LevelError)
			if err != nil {
				return err
			}
			defer store.Close()

			keys, err := store.ListAPIKeys(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing API keys: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "No API keys found")
				fmt.Fprintln(out, "Create one with: listingdesk-server keys create --name front-desk")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED\tLAST USED")
			for _, k := range keys {
				lastUsed := k.LastUsedAt
				if lastUsed == "" {
					lastUsed = "never"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortID(k.ID), k.Name, k.CreatedAt, lastUsed)
			}
			return w.Flush()
		},
	}
}

func newKeysRevokeCmd() *cobra.Command {
	var keyID string

	cmd := &cobra.Command{
		Use:   "revoke [id]",
		Short: "Revoke an API key",
		Long: `Revoke an API key. The id may be the full id or the 8-character prefix
shown by 'listingdesk-server keys list'.

EXAMPLES:
  listingdesk-server keys revoke 3f2a91c0
  listingdesk-server keys revoke --id 3f2a91c0-5d1e-4c4b-9d59-0f4b7c1e2a33
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				keyID = args[0]
			}
			if keyID == "" {
				return errors.New("key id is required")
			}

			_, store, err := openStore(cmd.Context(), slog.LevelError)
			if err != nil {
				return err
			}
			defer store.Close()

			keys, err := store.ListAPIKeys(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing API keys: %w", err)
			}
			id, err := matchKey(keys, keyID)
			if err != nil {
				return err
			}
			if err := store.RevokeAPIKey(cmd.Context(), id); err != nil {
				return fmt.Errorf("revoking API key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key revoked: %s\n", shortID(id))
			return nil
		},
	}

	cmd.Flags().StringVar(&keyID, "id", "", "key id to revoke")

	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// matchKey resolves a full id or a unique prefix of at least 8 characters.
func matchKey(keys []storage.APIKey, id string) (string, error) {
	var found []string
	for _, k := range keys {
		if k.ID == id {
			return k.ID, nil
		}
		if len(id) >= 8 && strings.HasPrefix(k.ID, id) {
			found = append(found, k.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("key not found: %s", id)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("key id %s is ambiguous", id)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Platform.URL == "" {
		return errors.New("PLATFORM_URL is required")
	}

	logger := setupLogger(cfg)
	logger.Info("starting listingdesk-server", "version", version)

	metrics.Init(cfg.Metrics.Enabled, "listingdesk-server")

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	platform := client.New(cfg.Platform.URL, cfg.Platform.Token,
		client.WithTimeout(time.Duration(cfg.Platform.TimeoutSeconds)*time.Second),
		client.WithRateLimit(cfg.Platform.RPS, cfg.Platform.Burst),
		client.WithUserAgent("listingdesk-server/"+version),
	)
	srv := server.New(cfg, store, platform, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go purgeLoop(ctx, srv, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr, "platform", cfg.Platform.URL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// purgeLoop drops expired view state at startup and then every purgeInterval.
func purgeLoop(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		if n, err := srv.PurgeViewState(ctx); err != nil {
			logger.Warn("purging stale view state", "error", err)
		} else if n > 0 {
			logger.Info("purged stale view state", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
