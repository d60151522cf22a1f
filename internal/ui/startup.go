package ui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/gravitrone/mirrorctl/internal/access"
	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/ui/components"
)

// probeTimeout bounds each request of the startup probe.
const probeTimeout = 700 * time.Millisecond

// probe tracks the health and permission checks run when the console opens.
type probe struct {
	running bool
	api     string
	perms   string
}

type probeDoneMsg struct {
	healthErr error
	rights    access.Rights
	rightsErr error
}

func newProbe(run bool) probe {
	return probe{running: run, api: "checking", perms: "checking"}
}

func runProbe(client *api.Client, userID string) tea.Cmd {
	client = client.WithTimeout(probeTimeout)
	userID = strings.TrimSpace(userID)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*probeTimeout)
		defer cancel()

		done := probeDoneMsg{rights: access.Unknown()}
		if _, err := client.Health(ctx); err != nil {
			done.healthErr = err
			return done
		}
		done.rights, done.rightsErr = access.Load(ctx, client, userID)
		return done
	}
}

// settle records the probe outcome and picks the toast that reports it.
func (p *probe) settle(msg probeDoneMsg, logger *zap.Logger) (toastLevel, string) {
	p.running = false
	p.api, p.perms = "ok", "ok"
	switch {
	case msg.healthErr != nil:
		p.api, p.perms = "unreachable", "skipped"
		logger.Warn("startup health check failed", zap.Error(msg.healthErr))
		return toastError, "API unreachable: " + msg.healthErr.Error()
	case msg.rightsErr != nil:
		p.perms = "failed"
		logger.Warn("startup permission check failed", zap.Error(msg.rightsErr))
		return toastWarning, "Could not load your permissions; editing is disabled."
	case !msg.rights.Known():
		p.perms = "unknown"
		return toastWarning, "user_id is not configured; editing is disabled. Run mirrorctl login."
	}
	return toastSuccess, "Connected."
}

func (p probe) render(width int) string {
	return components.Details("Startup Checks", []components.Field{
		{Label: "API", Value: p.api},
		{Label: "Permissions", Value: p.perms},
	}, width)
}

func (a App) finishProbe(msg probeDoneMsg) (tea.Model, tea.Cmd) {
	level, text := a.probe.settle(msg, a.logger)
	a.rights = msg.rights
	a.users.SetRights(msg.rights)
	shown := a.toasts.show(level, text)
	if msg.healthErr != nil {
		return a, shown
	}
	var load tea.Cmd
	a.users, load = a.users.Start()
	return a, tea.Batch(load, shown)
}
