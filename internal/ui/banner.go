package ui

import (
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var bannerArt = []string{
	"           _                         _   _ ",
	" _ __ ___ (_)_ __ _ __ ___  _ __ ___| |_| |",
	"| '_ ` _ \\| | '__| '__/ _ \\| '__/ __| __| |",
	"| | | | | | | |  | | | (_) | | | (__| |_| |",
	"|_| |_| |_|_|_|  |_|  \\___/|_|  \\___|\\__|_|",
}

// bannerSplit is the first art line drawn in the secondary colour.
const bannerSplit = 3

const bannerTagline = "media mirror admin console"

// RenderBanner draws the logo over a tagline naming the connected server.
func RenderBanner(server string) string {
	width := 0
	for _, line := range bannerArt {
		width = max(width, lipgloss.Width(line))
	}

	top := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	bottom := lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	var b strings.Builder
	b.WriteString("\n")
	for i, line := range bannerArt {
		style := top
		if i >= bannerSplit {
			style = bottom
		}
		b.WriteString(style.Render(line) + "\n")
	}

	tagline := bannerTagline
	if host := serverHost(server); host != "" {
		tagline += " · " + host
	}
	center := lipgloss.NewStyle().Width(max(width, lipgloss.Width(tagline))).Align(lipgloss.Center)
	b.WriteString("\n")
	b.WriteString(center.Foreground(ColorMuted).Render(tagline) + "\n")
	b.WriteString(center.Foreground(ColorBorder).Render(strings.Repeat("─", lipgloss.Width(tagline))) + "\n")
	return b.String()
}

// serverHost reduces a base URL to its host for display.
func serverHost(server string) string {
	u, err := url.Parse(strings.TrimSpace(server))
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}
