package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/config"
	"github.com/gravitrone/mirrorctl/internal/logging"
)

// session is the loaded config plus a client for one command run.
type session struct {
	cfg    *config.Config
	client *api.Client
	logger *zap.Logger
}

func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("not logged in: %w", err)
	}
	logger, err := logging.New(cfg.LogFile, cfg.Debug)
	if err != nil {
		return nil, err
	}
	client := cfg.Client()
	client.SetLogger(logger)
	return &session{cfg: cfg, client: client, logger: logger}, nil
}

func (s *session) close() {
	_ = logging.Sync(s.logger)
}

// withSession wraps a RunE body with config loading and logger cleanup.
func withSession(run func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()
		return run(cmd, s, args)
	}
}
