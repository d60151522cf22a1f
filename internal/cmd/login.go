package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/config"
	"github.com/gravitrone/mirrorctl/internal/logging"
)

// RunInteractiveLogin prompts for the API location, key and user id,
// checks them against the server and persists the config.
func RunInteractiveLogin(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	prompt := func(label string) string {
		fmt.Fprint(out, label)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}

	baseURL := prompt(fmt.Sprintf("base url [%s]: ", api.DefaultBaseURL))
	if baseURL == "" {
		baseURL = api.DefaultBaseURL
	}
	apiKey := prompt("api key: ")
	if apiKey == "" {
		return fmt.Errorf("api key is required")
	}
	userID := prompt("user id (optional): ")
	if userID != "" && !api.ValidUserID(userID) {
		return fmt.Errorf("%w: %q", api.ErrInvalidUserID, userID)
	}

	cfg := &config.Config{APIKey: apiKey, Server: baseURL, UserID: userID}
	client := cfg.Client()
	if _, err := client.Health(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	var perms []string
	if userID != "" {
		user, err := client.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		cfg.Username = user.Username
		perms, err = client.GetUserPermissions(ctx, userID)
		if err != nil {
			return fmt.Errorf("load permissions: %w", err)
		}
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(out, "connected to %s with key %s\n", cfg.BaseURL(), logging.RedactKey(apiKey))
	if cfg.Username != "" {
		fmt.Fprintf(out, "logged in as %s\n", cfg.Username)
		fmt.Fprintf(out, "permissions: %s\n", orNone(perms))
	} else {
		fmt.Fprintln(out, "no user id set; the console will be read-only")
	}
	fmt.Fprintf(out, "config saved to %s\n", config.Path())
	return nil
}

// LoginCmd returns the `mirrorctl login` command.
func LoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Connect to a mirror server and save the API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunInteractiveLogin(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
