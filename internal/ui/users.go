package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gravitrone/mirrorctl/internal/access"
	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/ui/components"
)

// filterDebounce is how long typing must pause before a filter reloads.
const filterDebounce = 300 * time.Millisecond

// --- Messages ---

type usersLoadedMsg struct {
	seq  int
	page *api.UserPage
}

type usersFilterTickMsg struct{ seq int }

type userDetailLoadedMsg struct {
	user      *api.User
	perms     []string
	catalogue []api.Permission
}

type userCreatedMsg struct {
	id       string
	username string
}

type userCreateFailedMsg struct{ err error }

type userDeletedMsg struct{ username string }

type usersView int

const (
	usersViewList usersView = iota
	usersViewDetail
	usersViewAdd
	usersViewConfirmDelete
)

const (
	userFieldUsername = iota
	userFieldPassword
	userFieldConfirm
	userFieldCount
)

// --- Users Model ---

type UsersModel struct {
	client   *api.Client
	rights   access.Rights
	logger   *zap.Logger
	pageSize int
	now      func() time.Time

	items    []api.User
	list     *components.List
	page     int
	nextPage bool
	loading  bool
	loadSeq  int
	view     usersView
	errText  string

	filter    textinput.Model
	filtering bool
	filterSeq int

	detail        *api.User
	detailLoading bool
	editor        PillboxEditor
	hasEditor     bool
	clicked       *string
	deleteTarget  *api.User
	deleteReturns usersView

	form       [userFieldCount]textinput.Model
	formFocus  int
	formErr    string
	formField  string
	formSaving bool

	width  int
	height int
}

// NewUsersModel builds the users tab.
func NewUsersModel(client *api.Client, pageSize int, logger *zap.Logger) UsersModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "username"
	filter.CharLimit = 26

	m := UsersModel{
		client:   client,
		rights:   access.Unknown(),
		logger:   logger,
		pageSize: pageSize,
		now:      time.Now,
		list:     components.NewList(pageSize),
		page:     1,
		filter:   filter,
		clicked:  new(string),
	}
	m.form = newUserForm()
	return m
}

func newUserForm() [userFieldCount]textinput.Model {
	var form [userFieldCount]textinput.Model
	for i := range form {
		in := textinput.New()
		in.Prompt = "> "
		in.CharLimit = 64
		form[i] = in
	}
	form[userFieldUsername].Placeholder = "username"
	form[userFieldUsername].CharLimit = 26
	form[userFieldPassword].Placeholder = "password"
	form[userFieldPassword].EchoMode = textinput.EchoPassword
	form[userFieldConfirm].Placeholder = "confirm password"
	form[userFieldConfirm].EchoMode = textinput.EchoPassword
	return form
}

// SetRights applies the signed-in user's permissions.
func (m *UsersModel) SetRights(r access.Rights) {
	m.rights = r
}

func (m *UsersModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.editor.SetWidth(width)
}

// Capturing reports whether keystrokes are text input.
func (m UsersModel) Capturing() bool {
	switch m.view {
	case usersViewAdd:
		return true
	case usersViewDetail:
		return m.editor.Capturing()
	}
	return m.filtering
}

// Start loads the current page.
func (m UsersModel) Start() (UsersModel, tea.Cmd) {
	return m.reload(m.page)
}

func (m UsersModel) Update(msg tea.Msg) (UsersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		if msg.seq != m.loadSeq {
			return m, nil
		}
		m.loading = false
		m.errText = ""
		m.items = msg.page.Users
		if msg.page.Page > 0 {
			m.page = msg.page.Page
		}
		m.nextPage = msg.page.NextPage
		m.list.Reset(len(m.items))
		return m, nil
	case usersFilterTickMsg:
		if msg.seq != m.filterSeq {
			return m, nil
		}
		return m.reload(1)
	case userDetailLoadedMsg:
		if m.detail == nil || msg.user.ID != m.detail.ID {
			return m, nil
		}
		return m.openEditor(msg)
	case userCreatedMsg:
		m.formSaving = false
		m.form = newUserForm()
		m.view = usersViewList
		next, cmd := m.reload(m.page)
		return next, tea.Batch(cmd, toast(toastSuccess, fmt.Sprintf("User %s created", msg.username)))
	case userCreateFailedMsg:
		m.formSaving = false
		m.formErr, m.formField = describeCreateError(msg.err)
		cmd := m.focusField(fieldIndex(m.formField))
		return m, cmd
	case userDeletedMsg:
		m.deleteTarget = nil
		m.detail = nil
		m.hasEditor = false
		m.view = usersViewList
		next, cmd := m.reload(m.page)
		return next, tea.Batch(cmd, toast(toastSuccess, fmt.Sprintf("User %s deleted", msg.username)))
	case pillboxSettledMsg, pillboxPulseMsg:
		if !m.hasEditor {
			return m, nil
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		m.editor.SetSuggestions(access.Addable(m.editor.Box()))
		return m, cmd
	case errMsg:
		m.loading = false
		m.detailLoading = false
		m.formSaving = false
		m.errText = msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		switch m.view {
		case usersViewAdd:
			return m.handleAddKeys(msg)
		case usersViewConfirmDelete:
			return m.handleConfirmKeys(msg)
		case usersViewDetail:
			return m.handleDetailKeys(msg)
		}
		if m.filtering {
			return m.handleFilterKeys(msg)
		}
		return m.handleListKeys(msg)
	}
	return m, nil
}

func (m UsersModel) View() string {
	var body string
	switch m.view {
	case usersViewAdd:
		body = m.renderAdd()
	case usersViewConfirmDelete:
		name := ""
		if m.deleteTarget != nil {
			name = components.SanitizeOneLine(m.deleteTarget.Username)
		}
		body = components.ConfirmDialog("Delete user", fmt.Sprintf("Delete %s? This cannot be undone.", name), m.width)
	case usersViewDetail:
		body = m.renderDetail()
	default:
		body = m.renderList()
	}
	return components.Indent(body, 1)
}

// --- List ---

func (m UsersModel) reload(page int) (UsersModel, tea.Cmd) {
	if page < 1 {
		page = 1
	}
	m.page = page
	m.loading = true
	m.loadSeq++
	return m, m.loadPage(m.loadSeq)
}

func (m UsersModel) loadPage(seq int) tea.Cmd {
	client := m.client
	query := api.UserQuery{
		Page:           m.page,
		PageSize:       m.pageSize,
		UsernameFilter: strings.TrimSpace(m.filter.Value()),
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		page, err := client.ListUsers(ctx, query)
		if err != nil {
			return errMsg{err}
		}
		return usersLoadedMsg{seq: seq, page: page}
	}
}


func (m UsersModel) handleListKeys(msg tea.KeyMsg) (UsersModel, tea.Cmd) {
	switch {
	case isDown(msg):
		m.list.Down()
	case isUp(msg):
		m.list.Up()
	case isKey(msg, "n", "]"):
		if m.nextPage && !m.loading {
			return m.reload(m.page + 1)
		}
	case isKey(msg, "p", "["):
		if m.page > 1 && !m.loading {
			return m.reload(m.page - 1)
		}
	case isKey(msg, "/"):
		m.filtering = true
		cmd := m.filter.Focus()
		return m, cmd
	case isKey(msg, "a"):
		if !m.rights.CanManageUsers() {
			return m, toast(toastWarning, "manage-users is required to add users")
		}
		m.view = usersViewAdd
		m.form = newUserForm()
		m.formErr, m.formField = "", ""
		cmd := m.focusField(userFieldUsername)
		return m, cmd
	case isKey(msg, "d"):
		if u := m.selected(); u != nil {
			return m.confirmDelete(*u, usersViewList)
		}
	case isEnter(msg), isSpace(msg):
		if u := m.selected(); u != nil {
			return m.openDetail(*u)
		}
	case isBack(msg):
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			return m.reload(1)
		}
	}
	return m, nil
}

func (m UsersModel) handleFilterKeys(msg tea.KeyMsg) (UsersModel, tea.Cmd) {
	switch {
	case isEnter(msg):
		m.filtering = false
		m.filter.Blur()
		m.filterSeq++
		return m.reload(1)
	case isBack(msg):
		m.filtering = false
		m.filter.Blur()
		m.filterSeq++
		if m.filter.Value() == "" {
			return m, nil
		}
		m.filter.SetValue("")
		return m.reload(1)
	}
	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() == before {
		return m, cmd
	}
	m.filterSeq++
	seq := m.filterSeq
	return m, tea.Batch(cmd, tea.Tick(filterDebounce, func(time.Time) tea.Msg {
		return usersFilterTickMsg{seq: seq}
	}))
}

func (m UsersModel) selected() *api.User {
	idx := m.list.Selected()
	if idx < 0 || idx >= len(m.items) {
		return nil
	}
	u := m.items[idx]
	return &u
}

func (m UsersModel) renderList() string {
	filterLine := m.filter.View()
	if !m.filtering {
		filterLine = MutedStyle.Render("filter: " + orDash(m.filter.Value()))
	}

	var body string
	switch {
	case m.loading:
		body = MutedStyle.Render("Loading users...")
	case m.errText != "":
		body = ErrorStyle.Render(components.SanitizeOneLine(m.errText))
	case len(m.items) == 0:
		body = MutedStyle.Render("No users found.")
	default:
		body = m.renderTable()
	}

	pageLine := fmt.Sprintf("page %d", m.page)
	if m.nextPage {
		pageLine += " · more"
	}
	content := filterLine + "\n" + MutedStyle.Render(pageLine) + "\n\n" + body
	return components.TitledBox("Users", content, m.width)
}

func (m UsersModel) renderTable() string {
	grid := components.Grid{
		Columns: []components.Column{
			{Title: " ", Width: 1, Style: presenceStyle},
			{Title: "Username", MinWidth: 12},
			{Title: "Status", Width: 28},
		},
		Active: -1,
	}

	now := m.now()
	start, end := m.list.Window()
	rows := make([][]string, 0, end-start)
	for i := start; i < end && i < len(m.items); i++ {
		u := m.items[i]
		if m.list.IsSelected(i) {
			grid.Active = len(rows)
		}
		rows = append(rows, []string{presenceMarker(u.Presence(now)), u.Username, u.PresenceText(now)})
	}
	return grid.Render(rows, components.BoxContentWidth(m.width))
}

// --- Detail ---

func (m UsersModel) openDetail(u api.User) (UsersModel, tea.Cmd) {
	m.detail = &u
	m.detailLoading = true
	m.hasEditor = false
	m.editor = PillboxEditor{}
	m.errText = ""
	m.view = usersViewDetail
	return m, m.loadDetail(u.ID)
}

func (m UsersModel) loadDetail(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var out userDetailLoadedMsg
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			user, err := client.GetUser(ctx, id)
			out.user = user
			return err
		})
		g.Go(func() error {
			perms, err := client.GetUserPermissions(ctx, id)
			out.perms = perms
			return err
		})
		g.Go(func() error {
			catalogue, err := client.ListPermissions(ctx)
			out.catalogue = catalogue
			return err
		})
		if err := g.Wait(); err != nil {
			return errMsg{fmt.Errorf("load user: %w", err)}
		}
		return out
	}
}

func (m UsersModel) openEditor(msg userDetailLoadedMsg) (UsersModel, tea.Cmd) {
	m.detailLoading = false
	m.detail = msg.user
	clicked := m.clicked
	box, err := access.PermissionBox(m.client, access.BoxInput{
		UserID:    msg.user.ID,
		Held:      msg.perms,
		Catalogue: msg.catalogue,
		Editable:  m.rights.CanEditPermissions(),
		Notifier:  newLoggingNotifier(m.logger, msg.user.ID),
		OnClick:   func(value string) { *clicked = value },
	})
	if err != nil {
		m.errText = err.Error()
		return m, nil
	}
	m.editor = NewPillboxEditor(box, clicked, access.Addable(box))
	m.editor.SetWidth(m.width)
	m.hasEditor = true
	return m, nil
}

func (m UsersModel) handleDetailKeys(msg tea.KeyMsg) (UsersModel, tea.Cmd) {
	if m.hasEditor && m.editor.Focused() {
		if isBack(msg) && !m.editor.Capturing() {
			m.editor.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	switch {
	case isBack(msg):
		m.detail = nil
		m.errText = ""
		m.hasEditor = false
		m.editor = PillboxEditor{}
		m.view = usersViewList
	case isKey(msg, "e"), isTabKey(msg), isDown(msg):
		if m.hasEditor {
			m.editor.Focus()
		}
	case isKey(msg, "d"):
		if m.detail != nil {
			return m.confirmDelete(*m.detail, usersViewDetail)
		}
	case isKey(msg, "r"):
		if m.detail != nil {
			return m.openDetail(*m.detail)
		}
	}
	return m, nil
}

func (m UsersModel) renderDetail() string {
	if m.detail == nil {
		return ""
	}
	u := *m.detail
	now := m.now()
	lastSeen := "never"
	if u.LastSeen != nil && !u.LastSeen.IsZero() {
		lastSeen = formatRelative(u.LastSeen.Time, now)
	}
	rows := []components.Field{
		{Label: "ID", Value: u.ID},
		{Label: "Username", Value: u.Username},
		{Label: "Status", Value: u.PresenceText(now)},
		{Label: "Created", Value: formatTimestamp(u.Created)},
		{Label: "Last seen", Value: lastSeen},
		{Label: "Last updated", Value: formatTimestamp(u.LastUpdated)},
	}
	out := components.Details("User", rows, m.width)

	var perms string
	switch {
	case m.detailLoading:
		perms = MutedStyle.Render("Loading permissions...")
	case m.errText != "":
		perms = ErrorStyle.Render(components.SanitizeOneLine(m.errText))
	case m.hasEditor:
		perms = m.editor.View()
	}
	title := "Permissions"
	if m.hasEditor && m.editor.Focused() {
		title = "Permissions ›"
	}
	return out + "\n\n" + components.TitledBox(title, perms, m.width)
}

// --- Add ---

func (m *UsersModel) focusField(idx int) tea.Cmd {
	if idx < 0 || idx >= userFieldCount {
		idx = userFieldUsername
	}
	m.formFocus = idx
	for i := range m.form {
		m.form[i].Blur()
	}
	return m.form[idx].Focus()
}

func (m UsersModel) handleAddKeys(msg tea.KeyMsg) (UsersModel, tea.Cmd) {
	if m.formSaving {
		return m, nil
	}
	switch {
	case isBack(msg):
		m.view = usersViewList
		m.form = newUserForm()
		m.formErr, m.formField = "", ""
		return m, nil
	case isTabKey(msg), isDown(msg):
		cmd := m.focusField((m.formFocus + 1) % userFieldCount)
		return m, cmd
	case isShiftTab(msg), isUp(msg):
		cmd := m.focusField((m.formFocus - 1 + userFieldCount) % userFieldCount)
		return m, cmd
	case isEnter(msg), isKey(msg, "ctrl+s"):
		if isEnter(msg) && m.formFocus < userFieldCount-1 {
			cmd := m.focusField(m.formFocus + 1)
			return m, cmd
		}
		return m.submitAdd()
	}
	var cmd tea.Cmd
	m.form[m.formFocus], cmd = m.form[m.formFocus].Update(msg)
	return m, cmd
}

func (m UsersModel) submitAdd() (UsersModel, tea.Cmd) {
	input := api.NewUserInput{
		Username:        strings.TrimSpace(m.form[userFieldUsername].Value()),
		Password:        m.form[userFieldPassword].Value(),
		ConfirmPassword: m.form[userFieldConfirm].Value(),
	}
	if err := api.ValidateNewUser(input); err != nil {
		m.formErr, m.formField = describeCreateError(err)
		cmd := m.focusField(fieldIndex(m.formField))
		return m, cmd
	}
	m.formSaving = true
	m.formErr, m.formField = "", ""
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		id, err := client.CreateUser(ctx, input)
		if err != nil {
			return userCreateFailedMsg{err}
		}
		return userCreatedMsg{id: id, username: input.Username}
	}
}

func describeCreateError(err error) (string, string) {
	var ie *api.InputError
	if errors.As(err, &ie) {
		return ie.Message, ie.Field
	}
	if api.StatusCode(err) == http.StatusConflict {
		return "username is already taken", api.FieldUsername
	}
	return err.Error(), ""
}

func fieldIndex(field string) int {
	switch field {
	case api.FieldPassword:
		return userFieldPassword
	case api.FieldConfirmPassword:
		return userFieldConfirm
	}
	return userFieldUsername
}

func (m UsersModel) renderAdd() string {
	labels := [userFieldCount]string{"Username", "Password", "Confirm password"}
	fields := make([]components.FormField, 0, userFieldCount)
	for i := range m.form {
		fields = append(fields, components.FormField{
			Label: labels[i],
			Input: m.form[i].View(),
			Error: m.formField != "" && fieldIndex(m.formField) == i,
		})
	}
	errText := m.formErr
	if m.formSaving {
		errText = ""
	}
	out := components.FormDialog("Add user", fields, errText, m.width)
	if m.formSaving {
		out += "\n" + MutedStyle.Render("Creating user...")
	}
	return out
}

// --- Delete ---

func (m UsersModel) confirmDelete(u api.User, from usersView) (UsersModel, tea.Cmd) {
	if !m.rights.CanManageUsers() {
		return m, toast(toastWarning, "manage-users is required to delete users")
	}
	m.deleteTarget = &u
	m.deleteReturns = from
	m.view = usersViewConfirmDelete
	return m, nil
}

func (m UsersModel) handleConfirmKeys(msg tea.KeyMsg) (UsersModel, tea.Cmd) {
	switch {
	case isKey(msg, "y"):
		if m.deleteTarget == nil {
			m.view = m.deleteReturns
			return m, nil
		}
		target := *m.deleteTarget
		client := m.client
		m.view = m.deleteReturns
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			if err := client.DeleteUser(ctx, target.ID); err != nil {
				return errMsg{fmt.Errorf("delete %s: %w", target.Username, err)}
			}
			return userDeletedMsg{username: target.Username}
		}
	case isKey(msg, "n"), isBack(msg):
		m.deleteTarget = nil
		m.view = m.deleteReturns
	}
	return m, nil
}

// Hints lists the keys for the current view.
func (m UsersModel) Hints() []string {
	switch m.view {
	case usersViewAdd:
		return []string{
			components.Hint("tab", "Next"),
			components.Hint("enter", "Submit"),
			components.Hint("esc", "Cancel"),
		}
	case usersViewConfirmDelete:
		return []string{
			components.Hint("y", "Delete"),
			components.Hint("n", "Cancel"),
		}
	case usersViewDetail:
		if m.hasEditor && m.editor.Focused() {
			return append(m.editor.Hints(), components.Hint("esc", "Done"))
		}
		hints := []string{components.Hint("r", "Refresh")}
		if m.hasEditor {
			hints = append(hints, components.Hint("e", "Permissions"))
		}
		if m.rights.CanManageUsers() {
			hints = append(hints, components.Hint("d", "Delete"))
		}
		return append(hints, components.Hint("esc", "Back"))
	}
	if m.filtering {
		return []string{
			components.Hint("enter", "Apply"),
			components.Hint("esc", "Clear"),
		}
	}
	hints := []string{
		components.Hint("↑/↓", "Scroll"),
		components.Hint("enter", "Details"),
		components.Hint("/", "Filter"),
		components.Hint("n/p", "Page"),
	}
	if m.rights.CanManageUsers() {
		hints = append(hints, components.Hint("a", "Add"), components.Hint("d", "Delete"))
	}
	return hints
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
