package ui

import (
	"fmt"
	"time"

	"github.com/gravitrone/mirrorctl/internal/api"
)

// requestTimeout bounds one console request.
const requestTimeout = 15 * time.Second

// formatRelative renders t relative to now, like "5m ago".
func formatRelative(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return t.Local().Format("2006-01-02")
}

func formatTimestamp(ts *api.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func presenceMarker(p api.Presence) string {
	switch p {
	case api.PresenceOnline:
		return markOnline
	case api.PresenceAway:
		return markAway
	}
	return markNever
}
