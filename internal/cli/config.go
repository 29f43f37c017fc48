package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// projectConfigFiles is the search order for project config files
var projectConfigFiles = []string{"listingdesk.toml", ".listingdesk.toml"}

// ProjectConfig is the project-level TOML configuration
type ProjectConfig struct {
	Platform string `toml:"platform"`
	// State is the view state database path.
	State string     `toml:"state,omitempty"`
	Views ViewConfig `toml:"views,omitempty"`
	// MediaDownloadPrefix is prepended to content document ids to form image URLs.
	MediaDownloadPrefix string `toml:"media_download_prefix,omitempty"`
}

// ViewConfig parameterizes the list views.
type ViewConfig struct {
	RecordLimit     int   `toml:"record_limit,omitempty"`
	PageSizes       []int `toml:"page_sizes,omitempty"`
	DefaultPageSize int   `toml:"default_page_size,omitempty"`
}

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var platform string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file",
		Long: `Create a listingdesk.toml configuration file in the current directory.

EXAMPLES:
  # Create config for a platform
  listingdesk config init --platform https://estates.my.example.com

  # Overwrite existing config
  listingdesk config init --platform https://estates.my.example.com --force
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), platform, force)
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "http://localhost:8081", "platform URL")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current config",
		Long: `Display every configuration source and the effective settings.

EXAMPLES:
  listingdesk config show
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}
}

func runConfigInit(w io.Writer, platform string, force bool) error {
	configPath := projectConfigFiles[0]

	for _, name := range projectConfigFiles {
		if _, err := os.Stat(name); err == nil && !force {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", name)
		}
	}

	content := fmt.Sprintf(`# listingdesk configuration

platform = "%s"

# View state database
# state = "~/.listingdesk/state.db"

[views]
record_limit = 200
page_sizes = [10, 25, 50, 100]
default_page_size = 10
`, platform)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(w, "Created %s\n", configPath)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Platform: %s\n", platform)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  1. Run 'listingdesk auth login' to store an access token")
	fmt.Fprintln(w, "  2. Run 'listingdesk listings show' to open the listing manager")

	return nil
}

func runConfigShow(w io.Writer) error {
	fmt.Fprintln(w, "Configuration sources (in order of precedence):")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "1. Command line flags")
	fmt.Fprintln(w, "   --platform, --token, --config, --state")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "2. Environment variables")
	if env := os.Getenv("LISTINGDESK_PLATFORM"); env != "" {
		fmt.Fprintf(w, "   LISTINGDESK_PLATFORM=%s\n", env)
	} else {
		fmt.Fprintln(w, "   LISTINGDESK_PLATFORM=(not set)")
	}
	if env := os.Getenv("LISTINGDESK_TOKEN"); env != "" {
		fmt.Fprintf(w, "   LISTINGDESK_TOKEN=%s\n", maskToken(env))
	} else {
		fmt.Fprintln(w, "   LISTINGDESK_TOKEN=(not set)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "3. Project config (listingdesk.toml)")
	projectConfig, configPath, err := loadProjectConfig()
	switch {
	case os.IsNotExist(err):
		fmt.Fprintln(w, "   (not found)")
	case err != nil:
		fmt.Fprintf(w, "   Error: %v\n", err)
	default:
		fmt.Fprintf(w, "   Loaded from: %s\n", configPath)
		if projectConfig.Platform != "" {
			fmt.Fprintf(w, "   platform: %s\n", projectConfig.Platform)
		}
		if projectConfig.State != "" {
			fmt.Fprintf(w, "   state: %s\n", projectConfig.State)
		}
		if projectConfig.Views.RecordLimit > 0 {
			fmt.Fprintf(w, "   views.record_limit: %d\n", projectConfig.Views.RecordLimit)
		}
		if len(projectConfig.Views.PageSizes) > 0 {
			fmt.Fprintf(w, "   views.page_sizes: %v\n", projectConfig.Views.PageSizes)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "4. Credentials (%s)\n", credentialsFilePath())
	creds, err := loadCredentials()
	switch {
	case os.IsNotExist(err):
		fmt.Fprintln(w, "   (not found)")
	case err != nil:
		fmt.Fprintf(w, "   Error: %v\n", err)
	case len(creds.Platforms) == 0:
		fmt.Fprintln(w, "   (no credentials stored)")
	default:
		for platform, cred := range creds.Platforms {
			fmt.Fprintf(w, "   %s: %s\n", platform, maskToken(cred.Token))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Effective configuration:")
	if p := getPlatform(); p != "" {
		fmt.Fprintf(w, "   Platform: %s\n", p)
	} else {
		fmt.Fprintln(w, "   Platform: (not set)")
	}
	if t := getToken(); t != "" {
		fmt.Fprintf(w, "   Token:    %s\n", maskToken(t))
	} else {
		fmt.Fprintln(w, "   Token:    (not set)")
	}
	fmt.Fprintf(w, "   State:    %s\n", getStatePath())

	return nil
}

// loadProjectConfig loads the project config from the first matching config file.
// Returns the config, the path it was loaded from, and an error.
func loadProjectConfig() (*ProjectConfig, string, error) {
	if cfgFile != "" {
		config, err := loadProjectConfigFromPath(cfgFile)
		if err != nil {
			return nil, cfgFile, err
		}
		return config, cfgFile, nil
	}

	for _, name := range projectConfigFiles {
		if _, err := os.Stat(name); err == nil {
			config, err := loadProjectConfigFromPath(name)
			if err != nil {
				return nil, name, err
			}
			return config, name, nil
		}
	}
	return nil, "", os.ErrNotExist
}

func loadProjectConfigFromPath(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config ProjectConfig
	if _, err := toml.Decode(string(data), &config); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	return &config, nil
}

// loadProjectConfigSilent loads the project config without returning errors for missing files.
// Parse failures are reported on stderr.
func loadProjectConfigSilent() *ProjectConfig {
	config, _, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Warning: failed to load project config: %v\n", err)
		return nil
	}
	return config
}
