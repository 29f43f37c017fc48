package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/pendergraft/listingdesk/pkg/client"
)

// Credentials stores access tokens per platform
type Credentials struct {
	Platforms map[string]PlatformCredential `yaml:"platforms"`
}

// PlatformCredential stores credentials for a single platform
type PlatformCredential struct {
	Token string `yaml:"token"`
	Name  string `yaml:"name,omitempty"`
}

func createAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}

	cmd.AddCommand(createAuthLoginCmd())
	cmd.AddCommand(createAuthLogoutCmd())
	cmd.AddCommand(createAuthStatusCmd())

	return cmd
}

func createAuthLoginCmd() *cobra.Command {
	var platformFlag string
	var tokenFlag string
	var name string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a platform access token",
		Long: `Save an access token for a listing platform.

The token is checked against the platform and stored in ~/.listingdesk/credentials
with secure file permissions.

EXAMPLES:
  # Interactive login (prompts for the token)
  listingdesk auth login --platform https://estates.my.example.com

  # Non-interactive login (for CI)
  listingdesk auth login --token $LISTINGDESK_TOKEN
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(cmd, platformFlag, tokenFlag, name)
		},
	}

	cmd.Flags().StringVar(&platformFlag, "platform", "", "platform URL (default from config)")
	cmd.Flags().StringVar(&tokenFlag, "token", "", "access token (prompts if not provided)")
	cmd.Flags().StringVar(&name, "name", "", "label stored with the token")

	return cmd
}

func createAuthLogoutCmd() *cobra.Command {
	var platformFlag string
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear credentials",
		Long: `Remove the saved token of a platform.

EXAMPLES:
  listingdesk auth logout
  listingdesk auth logout --all
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogout(cmd.OutOrStdout(), platformFlag, allFlag)
		},
	}

	cmd.Flags().StringVar(&platformFlag, "platform", "", "platform URL (default from config)")
	cmd.Flags().BoolVar(&allFlag, "all", false, "clear all credentials")

	return cmd
}

func createAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(cmd.OutOrStdout())
		},
	}
}

func runAuthLogin(cmd *cobra.Command, platform, tok, name string) error {
	w := cmd.OutOrStdout()
	if platform == "" {
		p, err := requirePlatform()
		if err != nil {
			return err
		}
		platform = p
	}

	if tok == "" {
		fmt.Fprintf(w, "Enter access token for %s: ", platform)

		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(w)
			if err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}
			tok = string(b)
		} else {
			reader := bufio.NewReader(in)
			line, err := reader.ReadString('\n')
			if err != nil && err != io.EOF {
				return fmt.Errorf("failed to read token: %w", err)
			}
			tok = line
		}
	}
	tok = strings.TrimSpace(tok)

	if tok == "" {
		return fmt.Errorf("token cannot be empty")
	}

	fmt.Fprintf(w, "Validating token with %s...\n", platform)
	valid, err := validateToken(cmd.Context(), platform, tok)
	if err != nil {
		return fmt.Errorf("failed to validate token: %w", err)
	}
	if !valid {
		return fmt.Errorf("invalid token")
	}

	if err := saveCredential(platform, tok, name); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Fprintf(w, "✅ Authenticated to %s (token: %s)\n", platform, maskToken(tok))
	fmt.Fprintf(w, "   Credentials saved to %s\n", credentialsFilePath())

	return nil
}

func runAuthLogout(w io.Writer, platform string, all bool) error {
	if all {
		if err := os.Remove(credentialsFilePath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credentials: %w", err)
		}
		fmt.Fprintln(w, "✅ All credentials cleared")
		return nil
	}

	if platform == "" {
		platform = getPlatform()
	}

	creds, err := loadCredentials()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(w, "No credentials found for %s\n", platform)
			return nil
		}
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	if _, exists := creds.Platforms[platform]; !exists {
		fmt.Fprintf(w, "No credentials found for %s\n", platform)
		return nil
	}

	delete(creds.Platforms, platform)

	if err := writeCredentials(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Fprintf(w, "✅ Logged out from %s\n", platform)
	return nil
}

func runAuthStatus(w io.Writer) error {
	creds, err := loadCredentials()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if err != nil || len(creds.Platforms) == 0 {
		fmt.Fprintln(w, "Not authenticated to any platform")
		fmt.Fprintln(w, "\nRun 'listingdesk auth login' to authenticate")
		return nil
	}

	fmt.Fprintln(w, "Authenticated platforms:")
	for platform, cred := range creds.Platforms {
		masked := maskToken(cred.Token)
		if cred.Name != "" {
			fmt.Fprintf(w, "  • %s (%s, token: %s)\n", platform, cred.Name, masked)
		} else {
			fmt.Fprintf(w, "  • %s (token: %s)\n", platform, masked)
		}
	}

	return nil
}

// Credential file helpers

func credentialsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".listingdesk"
	}
	return filepath.Join(home, ".listingdesk")
}

func credentialsFilePath() string {
	return filepath.Join(credentialsDir(), "credentials")
}

func loadCredentials() (*Credentials, error) {
	data, err := os.ReadFile(credentialsFilePath())
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	if creds.Platforms == nil {
		creds.Platforms = make(map[string]PlatformCredential)
	}

	return &creds, nil
}

func writeCredentials(creds *Credentials) error {
	if err := os.MkdirAll(credentialsDir(), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	return os.WriteFile(credentialsFilePath(), data, 0600)
}

func saveCredential(platform, tok, name string) error {
	creds, err := loadCredentials()
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		creds = &Credentials{Platforms: make(map[string]PlatformCredential)}
	}

	creds.Platforms[platform] = PlatformCredential{Token: tok, Name: name}
	return writeCredentials(creds)
}

func getCredential(platform string) string {
	if platform == "" {
		return ""
	}
	creds, err := loadCredentials()
	if err != nil {
		return ""
	}
	return creds.Platforms[platform].Token
}

// validateToken makes a cheap read with tok. Only a 401 or 403 marks the token invalid.
func validateToken(ctx context.Context, platform, tok string) (bool, error) {
	c := client.New(platform, tok)
	_, err := c.FetchContactFields(ctx)
	if err == nil {
		return true, nil
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden {
			return false, nil
		}
		return true, nil
	}
	return false, err
}

func maskToken(tok string) string {
	if len(tok) <= 8 {
		return "****"
	}
	return tok[:8] + "..." + tok[len(tok)-4:]
}
