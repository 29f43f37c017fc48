// Package cli implements the listingdesk terminal host of the listing widgets.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	platformURL string
	token       string
	statePath   string
	jsonOutput  bool
	verbose     bool
)

// errReported marks failures whose toasts were already printed.
var errReported = errors.New("command failed")

// Execute runs the CLI
func Execute(version string) error {
	rootCmd := newRootCmd(version)
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		logError(rootCmd, err)
	}
	return err
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "listingdesk",
		Short: "Listing widgets in the terminal",
		Long: `listingdesk runs the listing widgets (list views, portal publishing, contacts,
media, sub-status and map) against the listing platform from the terminal.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: listingdesk.toml)")
	rootCmd.PersistentFlags().StringVar(&platformURL, "platform", "", "platform URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "platform access token")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "view state database (default: ~/.listingdesk/state.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log platform calls")

	rootCmd.AddCommand(createViewCmd(viewListings))
	rootCmd.AddCommand(createViewCmd(viewLeads))
	rootCmd.AddCommand(createPortalsCmd())
	rootCmd.AddCommand(createContactsCmd())
	rootCmd.AddCommand(createMediaCmd())
	rootCmd.AddCommand(createStatusCmd())
	rootCmd.AddCommand(createMapCmd())
	rootCmd.AddCommand(createAuthCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd
}

// getPlatform returns the platform URL from flag, env, or config file
func getPlatform() string {
	// 1. Command line flag
	if platformURL != "" {
		return platformURL
	}

	// 2. Environment variable
	if env := os.Getenv("LISTINGDESK_PLATFORM"); env != "" {
		return env
	}

	// 3. Project config file (TOML)
	if config := loadProjectConfigSilent(); config != nil && config.Platform != "" {
		return config.Platform
	}

	return ""
}

// getToken returns the access token from flag, env, or credentials file
func getToken() string {
	// 1. Command line flag
	if token != "" {
		return token
	}

	// 2. Environment variable
	if env := os.Getenv("LISTINGDESK_TOKEN"); env != "" {
		return env
	}

	// 3. Credentials file (keyed by platform URL)
	if cred := getCredential(getPlatform()); cred != "" {
		return cred
	}

	return ""
}

func getStatePath() string {
	if statePath != "" {
		return statePath
	}
	if config := loadProjectConfigSilent(); config != nil && config.State != "" {
		return config.State
	}
	return filepath.Join(credentialsDir(), "state.db")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func requirePlatform() (string, error) {
	p := getPlatform()
	if p == "" {
		return "", fmt.Errorf("no platform configured (use --platform, LISTINGDESK_PLATFORM or %s)", projectConfigFiles[0])
	}
	return p, nil
}
