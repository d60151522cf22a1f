package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gravitrone/mirrorctl/internal/cmd"
	"github.com/gravitrone/mirrorctl/internal/config"
	"github.com/gravitrone/mirrorctl/internal/logging"
	"github.com/gravitrone/mirrorctl/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   "mirrorctl",
		Short: "mirrorctl - media mirror admin console",
		Long: "mirrorctl manages users and their permissions, browses linked accounts and reads server logs.\n" +
			"Run without a subcommand to open the interactive console.",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if configPath == "" {
				return nil
			}
			return os.Setenv(config.PathEnv, configPath)
		},
		RunE: func(c *cobra.Command, _ []string) error {
			return runConsole(c)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.mirrorctl/config, or $"+config.PathEnv+")")

	root.AddCommand(
		cmd.LoginCmd(),
		cmd.UsersCmd(),
		cmd.PermsCmd(),
		cmd.AccountsCmd(),
		cmd.LogsCmd(),
	)
	return root
}

// runConsole opens the TUI. It needs a saved login and a real terminal.
func runConsole(c *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(c.ErrOrStderr(), "not logged in. run 'mirrorctl login' first.")
		}
		return err
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return errors.New("the console needs a terminal; use the subcommands for scripting")
	}

	logger, err := logging.New(cfg.LogFile, cfg.Debug)
	if err != nil {
		return err
	}
	defer logging.Sync(logger)
	logger.Info("console starting",
		zap.String("base_url", cfg.BaseURL()),
		zap.String("api_key", logging.RedactKey(cfg.APIKey)),
		zap.Bool("user_configured", cfg.UserID != ""),
	)

	// The palette is hex colours throughout.
	lipgloss.SetColorProfile(termenv.TrueColor)

	client := cfg.Client()
	client.SetLogger(logger)
	p := tea.NewProgram(ui.NewApp(client, cfg, logger), tea.WithAltScreen(), tea.WithContext(c.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
