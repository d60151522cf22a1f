package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/ui/components"
)

// defaultDomains seed the domain filter before any account is loaded.
var defaultDomains = []string{"youtube.com", "google.com"}

// --- Messages ---

type accountsLoadedMsg struct {
	seq  int
	page *api.AccountPage
}

type accountsFilterTickMsg struct{ seq int }

type accountDetailLoadedMsg struct{ account *api.Account }

type accountsFocus int

const (
	accountsFocusList accountsFocus = iota
	accountsFocusName
	accountsFocusDomains
)

// --- Accounts Model ---

type AccountsModel struct {
	client   *api.Client
	pageSize int

	items    []api.Account
	list     *components.List
	page     int
	nextPage bool
	loading  bool
	loadSeq  int
	errText  string

	focus     accountsFocus
	name      textinput.Model
	filterSeq int
	domains   *components.MultiSelect

	detail        *api.Account
	detailLoading bool

	width  int
	height int
}

// NewAccountsModel builds the accounts tab.
func NewAccountsModel(client *api.Client, pageSize int) AccountsModel {
	name := textinput.New()
	name.Prompt = "name: "
	name.Placeholder = "any"
	name.CharLimit = 64
	return AccountsModel{
		client:   client,
		pageSize: pageSize,
		list:     components.NewList(pageSize),
		page:     1,
		name:     name,
		domains:  components.NewMultiSelect("Domains", defaultDomains...),
	}
}

func (m *AccountsModel) setSize(width, height int) {
	m.width = width
	m.height = height
}

// Capturing reports whether keystrokes are text input.
func (m AccountsModel) Capturing() bool {
	return m.focus == accountsFocusName
}

// Start loads the current page.
func (m AccountsModel) Start() (AccountsModel, tea.Cmd) {
	return m.reload(m.page)
}

func (m AccountsModel) Update(msg tea.Msg) (AccountsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsLoadedMsg:
		if msg.seq != m.loadSeq {
			return m, nil
		}
		m.loading = false
		m.errText = ""
		m.items = msg.page.Accounts
		if msg.page.Page > 0 {
			m.page = msg.page.Page
		}
		m.nextPage = msg.page.NextPage
		for _, a := range m.items {
			if m.domains.AddOptions(a.Domain) {
				m.domains.SortOptions()
			}
		}
		m.list.Reset(len(m.items))
		return m, nil
	case accountsFilterTickMsg:
		if msg.seq != m.filterSeq {
			return m, nil
		}
		return m.reload(1)
	case accountDetailLoadedMsg:
		if m.detail == nil {
			return m, nil
		}
		m.detailLoading = false
		m.detail = msg.account
		return m, nil
	case errMsg:
		m.loading = false
		m.detailLoading = false
		m.errText = msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		if m.detail != nil {
			if isBack(msg) {
				m.detail = nil
				m.errText = ""
			}
			return m, nil
		}
		switch m.focus {
		case accountsFocusName:
			return m.handleNameKeys(msg)
		case accountsFocusDomains:
			return m.handleDomainKeys(msg)
		}
		return m.handleListKeys(msg)
	}
	return m, nil
}

// Domain is the domain sent to the server: the first one selected, in
// option order.
func (m AccountsModel) Domain() string {
	sel := m.domains.Selected()
	if len(sel) == 0 {
		return ""
	}
	return sel[0]
}

func (m AccountsModel) reload(page int) (AccountsModel, tea.Cmd) {
	if page < 1 {
		page = 1
	}
	m.page = page
	m.loading = true
	m.loadSeq++
	return m, m.loadPage(m.loadSeq)
}

func (m AccountsModel) loadPage(seq int) tea.Cmd {
	client := m.client
	query := api.AccountQuery{
		Page:       m.page,
		PageSize:   m.pageSize,
		NameFilter: strings.TrimSpace(m.name.Value()),
		Domain:     m.Domain(),
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		page, err := client.ListAccounts(ctx, query)
		if err != nil {
			return errMsg{err}
		}
		return accountsLoadedMsg{seq: seq, page: page}
	}
}

func (m AccountsModel) handleListKeys(msg tea.KeyMsg) (AccountsModel, tea.Cmd) {
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
		m.focus = accountsFocusName
		cmd := m.name.Focus()
		return m, cmd
	case isKey(msg, "f"):
		m.focus = accountsFocusDomains
	case isEnter(msg), isSpace(msg):
		idx := m.list.Selected()
		if idx < 0 || idx >= len(m.items) {
			return m, nil
		}
		a := m.items[idx]
		m.detail = &a
		m.detailLoading = true
		return m, m.loadDetail(a)
	}
	return m, nil
}

func (m AccountsModel) handleNameKeys(msg tea.KeyMsg) (AccountsModel, tea.Cmd) {
	switch {
	case isEnter(msg):
		m.focus = accountsFocusList
		m.name.Blur()
		m.filterSeq++
		return m.reload(1)
	case isBack(msg):
		m.focus = accountsFocusList
		m.name.Blur()
		m.filterSeq++
		if m.name.Value() == "" {
			return m, nil
		}
		m.name.SetValue("")
		return m.reload(1)
	}
	before := m.name.Value()
	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	if m.name.Value() == before {
		return m, cmd
	}
	m.filterSeq++
	seq := m.filterSeq
	return m, tea.Batch(cmd, tea.Tick(filterDebounce, func(time.Time) tea.Msg {
		return accountsFilterTickMsg{seq: seq}
	}))
}

func (m AccountsModel) handleDomainKeys(msg tea.KeyMsg) (AccountsModel, tea.Cmd) {
	switch {
	case isUp(msg):
		m.domains.Up()
	case isDown(msg):
		m.domains.Down()
	case isSpace(msg), isEnter(msg):
		before := m.Domain()
		m.domains.Toggle()
		if m.Domain() != before {
			return m.reload(1)
		}
	case isKey(msg, "c"):
		had := m.Domain() != ""
		m.domains.Clear()
		if had {
			return m.reload(1)
		}
	case isBack(msg), isKey(msg, "f"):
		m.focus = accountsFocusList
	}
	return m, nil
}

func (m AccountsModel) loadDetail(a api.Account) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		account, err := client.GetAccount(ctx, a.Domain, a.Name)
		if err != nil {
			return errMsg{fmt.Errorf("load account: %w", err)}
		}
		return accountDetailLoadedMsg{account: account}
	}
}

func (m AccountsModel) View() string {
	if m.detail != nil {
		return components.Indent(m.renderDetail(), 1)
	}
	return components.Indent(m.renderList(), 1)
}

func (m AccountsModel) renderList() string {
	nameLine := m.name.View()
	if m.focus != accountsFocusName {
		nameLine = MutedStyle.Render("name: " + orDash(m.name.Value()))
	}
	filters := nameLine + "\n" + MutedStyle.Render(m.domains.Summary())
	if m.focus == accountsFocusDomains {
		filters = nameLine + "\n" + m.domains.View(true)
	}

	var body string
	switch {
	case m.loading:
		body = MutedStyle.Render("Loading accounts...")
	case m.errText != "":
		body = ErrorStyle.Render(components.SanitizeOneLine(m.errText))
	case len(m.items) == 0:
		body = MutedStyle.Render("No accounts found.")
	default:
		body = m.renderTable()
	}

	pageLine := fmt.Sprintf("page %d", m.page)
	if m.nextPage {
		pageLine += " · more"
	}
	content := filters + "\n" + MutedStyle.Render(pageLine) + "\n\n" + body
	return components.TitledBox("Accounts", content, m.width)
}

func (m AccountsModel) renderTable() string {
	grid := components.Grid{
		Columns: []components.Column{
			{Title: "Domain", Width: 18},
			{Title: "Name", MinWidth: 12},
		},
		Active: -1,
	}
	start, end := m.list.Window()
	rows := make([][]string, 0, end-start)
	for i := start; i < end && i < len(m.items); i++ {
		a := m.items[i]
		if m.list.IsSelected(i) {
			grid.Active = len(rows)
		}
		rows = append(rows, []string{a.Domain, a.Name})
	}
	return grid.Render(rows, components.BoxContentWidth(m.width))
}

func (m AccountsModel) renderDetail() string {
	if m.detailLoading {
		return components.TitledBox("Account", MutedStyle.Render("Loading account..."), m.width)
	}
	if m.errText != "" {
		return components.ErrorBox("Account", components.SanitizeOneLine(m.errText), m.width)
	}
	rows := []components.Field{
		{Label: "Domain", Value: m.detail.Domain},
		{Label: "Name", Value: m.detail.Name},
	}
	return components.Details("Account", rows, m.width)
}

// Hints lists the keys for the current focus.
func (m AccountsModel) Hints() []string {
	if m.detail != nil {
		return []string{components.Hint("esc", "Back")}
	}
	switch m.focus {
	case accountsFocusName:
		return []string{
			components.Hint("enter", "Apply"),
			components.Hint("esc", "Clear"),
		}
	case accountsFocusDomains:
		return []string{
			components.Hint("↑/↓", "Move"),
			components.Hint("space", "Toggle"),
			components.Hint("c", "Clear"),
			components.Hint("esc", "Done"),
		}
	}
	return []string{
		components.Hint("↑/↓", "Scroll"),
		components.Hint("enter", "Details"),
		components.Hint("/", "Name"),
		components.Hint("f", "Domains"),
		components.Hint("n/p", "Page"),
	}
}
