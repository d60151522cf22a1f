package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Shared bindings. Tab specific keys are matched with isKey.
var (
	bindQuit   = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	bindBack   = key.NewBinding(key.WithKeys("esc", "ctrl+["))
	bindUp     = key.NewBinding(key.WithKeys("up"))
	bindDown   = key.NewBinding(key.WithKeys("down"))
	bindLeft   = key.NewBinding(key.WithKeys("left"))
	bindRight  = key.NewBinding(key.WithKeys("right"))
	bindEnter  = key.NewBinding(key.WithKeys("enter"))
	bindSpace  = key.NewBinding(key.WithKeys(" "))
	bindNext   = key.NewBinding(key.WithKeys("tab"))
	bindPrev   = key.NewBinding(key.WithKeys("shift+tab"))
	bindRemove = key.NewBinding(key.WithKeys("x", "delete"))
)

func isKey(msg tea.KeyMsg, keys ...string) bool {
	return key.Matches(msg, key.NewBinding(key.WithKeys(keys...)))
}

func isQuit(msg tea.KeyMsg) bool     { return key.Matches(msg, bindQuit) }
func isBack(msg tea.KeyMsg) bool     { return key.Matches(msg, bindBack) }
func isUp(msg tea.KeyMsg) bool       { return key.Matches(msg, bindUp) }
func isDown(msg tea.KeyMsg) bool     { return key.Matches(msg, bindDown) }
func isLeft(msg tea.KeyMsg) bool     { return key.Matches(msg, bindLeft) }
func isRight(msg tea.KeyMsg) bool    { return key.Matches(msg, bindRight) }
func isEnter(msg tea.KeyMsg) bool    { return key.Matches(msg, bindEnter) }
func isSpace(msg tea.KeyMsg) bool    { return key.Matches(msg, bindSpace) }
func isTabKey(msg tea.KeyMsg) bool   { return key.Matches(msg, bindNext) }
func isShiftTab(msg tea.KeyMsg) bool { return key.Matches(msg, bindPrev) }
func isDelete(msg tea.KeyMsg) bool   { return key.Matches(msg, bindRemove) }
