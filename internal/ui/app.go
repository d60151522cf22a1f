package ui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/gravitrone/mirrorctl/internal/access"
	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/config"
	"github.com/gravitrone/mirrorctl/internal/ui/components"
)

type tab int

const (
	tabUsers tab = iota
	tabAccounts
	tabLogs
)

var tabTitles = [...]string{"Users", "Accounts", "Logs"}

// step moves d tabs along, wrapping at either end.
func (t tab) step(d int) tab {
	n := len(tabTitles)
	return tab(((int(t)+d)%n + n) % n)
}

// tabForKey maps the digit keys to tabs.
func tabForKey(key string) (tab, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	t := tab(key[0] - '1')
	return t, int(t) < len(tabTitles)
}

// overlay is what covers the active tab, if anything.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayQuit
)

type errMsg struct{ err error }

// App is the root model. It owns the tabs and routes messages between them.
type App struct {
	client *api.Client
	cfg    *config.Config
	logger *zap.Logger

	width, height int
	active        tab
	// onTabs means left/right move between tabs until Down enters the tab.
	onTabs  bool
	overlay overlay

	failure     string
	recoverable bool

	probe  probe
	rights access.Rights
	toasts toastSlot

	users    UsersModel
	accounts AccountsModel
	logs     LogsModel
}

func NewApp(client *api.Client, cfg *config.Config, logger *zap.Logger) App {
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := config.DefaultPageSize
	if cfg != nil {
		pageSize = cfg.PageSize()
	}
	return App{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		active:   tabUsers,
		onTabs:   true,
		probe:    newProbe(client != nil),
		rights:   access.Unknown(),
		users:    NewUsersModel(client, pageSize, logger),
		accounts: NewAccountsModel(client, pageSize),
		logs:     NewLogsModel(client),
	}
}

func (a App) Init() tea.Cmd {
	if !a.probe.running {
		return nil
	}
	userID := ""
	if a.cfg != nil {
		userID = a.cfg.UserID
	}
	return runProbe(a.client, userID)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.users.setSize(msg.Width, msg.Height)
		a.accounts.setSize(msg.Width, msg.Height)
		a.logs.setSize(msg.Width, msg.Height)
		return a, nil
	case errMsg:
		a.failure = msg.err.Error()
		a.recoverable = needsLogin(msg.err)
		a.logger.Warn("console error", zap.Error(msg.err))
		return a.route(msg)
	case toastMsg:
		return a, a.toasts.show(msg.level, msg.text)
	case clearToastMsg:
		a.toasts.expire(msg.seq)
		return a, nil
	case noticeMsg:
		return a, a.toasts.show(fromNotice(msg.notice))
	case probeDoneMsg:
		return a.finishProbe(msg)
	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a.route(msg)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.overlay {
	case overlayQuit:
		switch {
		case isKey(msg, "y"):
			return a.quit()
		case isKey(msg, "n"), isBack(msg):
			a.overlay = overlayNone
		}
		return a, nil
	case overlayHelp:
		if isBack(msg) || isKey(msg, "?") {
			a.overlay = overlayNone
		}
		return a, nil
	}

	if msg.Type == tea.KeyCtrlC {
		return a.requestQuit()
	}
	if a.recoverable && isKey(msg, "c") {
		return a, a.toasts.show(toastInfo, "run: mirrorctl login")
	}
	a.failure, a.recoverable = "", false

	if a.capturing() {
		return a.route(msg)
	}
	switch {
	case isKey(msg, "?"):
		a.overlay = overlayHelp
		return a, nil
	case isQuit(msg):
		return a.requestQuit()
	}
	if t, ok := tabForKey(msg.String()); ok {
		return a.open(t)
	}
	return a.navigate(msg)
}

// navigate handles the arrow keys that move focus between the tab bar and
// the active tab. Anything else goes to the tab.
func (a App) navigate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !a.onTabs {
		if isUp(msg) && a.atTop() {
			a.onTabs = true
			return a, nil
		}
		return a.route(msg)
	}
	switch {
	case isLeft(msg):
		return a.open(a.active.step(-1))
	case isRight(msg):
		return a.open(a.active.step(1))
	}
	a.onTabs = false
	if isDown(msg) {
		return a, nil
	}
	return a.route(msg)
}

func (a App) requestQuit() (tea.Model, tea.Cmd) {
	if a.unsaved() {
		a.overlay = overlayQuit
		return a, nil
	}
	return a.quit()
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.logs.Stop()
	return a, tea.Quit
}

// route hands msg to the tab that owns it. Results of background loads go
// to the tab that started them, whichever tab is showing.
func (a App) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	owner := a.active
	switch msg.(type) {
	case usersLoadedMsg, usersFilterTickMsg, userDetailLoadedMsg, userCreatedMsg,
		userCreateFailedMsg, userDeletedMsg, pillboxSettledMsg, pillboxPulseMsg:
		owner = tabUsers
	case accountsLoadedMsg, accountsFilterTickMsg, accountDetailLoadedMsg:
		owner = tabAccounts
	case logTreeLoadedMsg, logBatchMsg:
		owner = tabLogs
	}

	var cmd tea.Cmd
	switch owner {
	case tabAccounts:
		a.accounts, cmd = a.accounts.Update(msg)
	case tabLogs:
		a.logs, cmd = a.logs.Update(msg)
	default:
		a.users, cmd = a.users.Update(msg)
	}
	return a, cmd
}

// open makes t the active tab and starts its first load.
func (a App) open(t tab) (App, tea.Cmd) {
	if t == a.active {
		return a, nil
	}
	a.active = t
	var cmd tea.Cmd
	switch t {
	case tabUsers:
		a.users, cmd = a.users.Start()
	case tabAccounts:
		a.accounts, cmd = a.accounts.Start()
	case tabLogs:
		a.logs, cmd = a.logs.Start()
	}
	return a, cmd
}

// capturing reports whether the active tab is taking raw text input.
func (a App) capturing() bool {
	switch a.active {
	case tabAccounts:
		return a.accounts.Capturing()
	case tabLogs:
		return a.logs.Capturing()
	}
	return a.users.Capturing()
}

// atTop reports whether Up should leave the tab for the tab bar.
func (a App) atTop() bool {
	switch a.active {
	case tabAccounts:
		return a.accounts.detail == nil && a.accounts.focus == accountsFocusList && a.accounts.list.Selected() == 0
	case tabLogs:
		return a.logs.view == logsViewTree && a.logs.tree.Selected() == 0
	}
	return a.users.view == usersViewList && a.users.list.Selected() == 0
}

func (a App) unsaved() bool {
	if a.users.view != usersViewAdd {
		return false
	}
	for _, in := range a.users.form {
		if in.Value() != "" {
			return true
		}
	}
	return false
}

func needsLogin(err error) bool {
	switch api.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return errors.Is(err, api.ErrInvalidUserID)
}

// --- View ---

func (a App) View() string {
	server := ""
	if a.client != nil {
		server = a.client.BaseURL()
	}
	head := []string{RenderBanner(server), a.renderTabs()}
	if a.probe.running {
		head = append(head, "", a.probe.render(a.width))
	}

	sections := []string{
		a.center(strings.Join(head, "\n")),
		a.center(a.renderBody()),
		"\n" + components.StatusBar(a.hints(), a.width),
	}
	if fb := a.renderFeedback(); fb != "" {
		sections = append(sections, a.center(fb))
	}
	return strings.Join(sections, "\n\n")
}

func (a App) renderBody() string {
	switch a.overlay {
	case overlayQuit:
		return components.Indent(components.ConfirmDialog("Quit", "You have unsaved input. Quit anyway?", a.width), 1)
	case overlayHelp:
		return a.renderHelp()
	}
	switch a.active {
	case tabAccounts:
		return a.accounts.View()
	case tabLogs:
		return a.logs.View()
	}
	return a.users.View()
}

// renderFeedback shows the pending error, or else the current toast.
func (a App) renderFeedback() string {
	if a.failure == "" {
		return a.toasts.render(a.width)
	}
	text := a.failure
	if a.recoverable {
		text += "\n\nRecovery: [c] show command"
	}
	return components.ErrorBox("Error", text, a.width)
}

func (a App) renderTabs() string {
	sep := MutedStyle.Render(" │ ")
	parts := make([]string, 0, 2*len(tabTitles))
	for i, title := range tabTitles {
		if i > 0 {
			parts = append(parts, sep)
		}
		style := TabInactiveStyle
		if tab(i) == a.active {
			style = TabActiveStyle
		}
		parts = append(parts, style.Render(fmt.Sprintf("%d %s", i+1, title)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func (a App) hints() []string {
	switch a.overlay {
	case overlayQuit:
		return []string{components.Hint("y", "Confirm"), components.Hint("n", "Cancel")}
	case overlayHelp:
		return []string{components.Hint("esc", "Back")}
	}
	hints := a.tabHints()
	if a.recoverable {
		hints = append(hints, components.Hint("c", "Command"))
	}
	return hints
}

func (a App) tabHints() []string {
	var hints []string
	if !a.capturing() {
		hints = []string{
			components.Hint(fmt.Sprintf("1-%d", len(tabTitles)), "Tabs"),
			components.Hint("?", "Help"),
			components.Hint("q", "Quit"),
		}
	}
	switch a.active {
	case tabAccounts:
		return append(hints, a.accounts.Hints()...)
	case tabLogs:
		return append(hints, a.logs.Hints()...)
	}
	return append(hints, a.users.Hints()...)
}

// renderHelp lays the full hint list out in two columns.
func (a App) renderHelp() string {
	hints := a.tabHints()
	half := (len(hints) + 1) / 2
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		strings.Join(hints[:half], "\n"), "    ", strings.Join(hints[half:], "\n"))
	body += "\n\n" + MutedStyle.Render("esc closes help")
	return components.Indent(components.TitledBox("Help", body, a.width), 1)
}

// center places a block in the middle of the terminal. Blocks wider than the
// terminal are left alone.
func (a App) center(block string) string {
	return lipgloss.PlaceHorizontal(a.width, lipgloss.Center, block)
}
