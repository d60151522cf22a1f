package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/ui/components"
)

const (
	// messagePreview is how many runes of a message a viewer row shows.
	messagePreview = 100
	// streamBatch caps the records delivered per message.
	streamBatch = 500
	// streamBuffer is the channel depth between reader and Update.
	streamBuffer = 1024
)

var logLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// --- Messages ---

type logTreeLoadedMsg struct{ root *api.LogNode }

type logBatchMsg struct {
	seq     int
	records []api.LogRecord
	ended   bool
	err     error
}

type logsView int

const (
	logsViewTree logsView = iota
	logsViewFile
	logsViewRecord
)

type logsFocus int

const (
	logsFocusList logsFocus = iota
	logsFocusSearch
	logsFocusLevels
	logsFocusComponents
)

type logRow struct {
	node  api.LogNode
	depth int
}

// logStream is one running read of a log file.
type logStream struct {
	seq     int
	records chan api.LogRecord
	done    chan error
	cancel  context.CancelFunc
}

// --- Logs Model ---

type LogsModel struct {
	client *api.Client

	view    logsView
	loading bool
	errText string

	root     *api.LogNode
	expanded map[string]bool
	rows     []logRow
	tree     *components.List
	pathBuf  textinput.Model
	treeFind bool

	path       string
	records    []api.LogRecord
	filtered   []int
	viewer     *components.List
	focus      logsFocus
	levels     *components.MultiSelect
	comps      *components.MultiSelect
	search     textinput.Model
	stream     *logStream
	streamSeq  int
	streaming  bool
	openRecord int

	width  int
	height int
}

// NewLogsModel builds the logs tab.
func NewLogsModel(client *api.Client) LogsModel {
	path := textinput.New()
	path.Prompt = "path: "
	path.Placeholder = "search files"
	search := textinput.New()
	search.Prompt = "search: "
	search.Placeholder = "message text"
	return LogsModel{
		client:   client,
		expanded: map[string]bool{},
		tree:     components.NewList(18),
		pathBuf:  path,
		viewer:   components.NewList(18),
		levels:   components.NewMultiSelect("Levels", logLevels...),
		comps:    components.NewMultiSelect("Components"),
		search:   search,
	}
}

func (m *LogsModel) setSize(width, height int) {
	m.width = width
	m.height = height
}

// Capturing reports whether keystrokes are text input.
func (m LogsModel) Capturing() bool {
	if m.view == logsViewTree {
		return m.treeFind
	}
	return m.view == logsViewFile && m.focus == logsFocusSearch
}

// Start loads the log index.
func (m LogsModel) Start() (LogsModel, tea.Cmd) {
	if m.view != logsViewTree {
		return m, nil
	}
	m.loading = true
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		root, err := client.LogTree(ctx)
		if err != nil {
			return errMsg{err}
		}
		return logTreeLoadedMsg{root: root}
	}
}

// Stop cancels any running stream.
func (m *LogsModel) Stop() {
	if m.stream != nil {
		m.stream.cancel()
		m.stream = nil
	}
	m.streaming = false
}

func (m LogsModel) Update(msg tea.Msg) (LogsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case logTreeLoadedMsg:
		m.loading = false
		m.errText = ""
		m.root = msg.root
		m.rebuildRows()
		return m, nil
	case logBatchMsg:
		if m.stream == nil || msg.seq != m.stream.seq {
			return m, nil
		}
		m.appendRecords(msg.records)
		if msg.ended {
			m.streaming = false
			m.stream = nil
			if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
				m.errText = msg.err.Error()
			}
			return m, nil
		}
		return m, waitForBatch(m.stream)
	case errMsg:
		m.loading = false
		m.errText = msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		switch m.view {
		case logsViewRecord:
			if isBack(msg) || isEnter(msg) {
				m.view = logsViewFile
			}
			return m, nil
		case logsViewFile:
			return m.handleFileKeys(msg)
		}
		if m.treeFind {
			return m.handleTreeSearchKeys(msg)
		}
		return m.handleTreeKeys(msg)
	}
	return m, nil
}

func (m LogsModel) View() string {
	var body string
	switch m.view {
	case logsViewRecord:
		body = m.renderRecord()
	case logsViewFile:
		body = m.renderFile()
	default:
		body = m.renderTree()
	}
	return components.Indent(body, 1)
}

// --- Tree ---

func (m *LogsModel) rebuildRows() {
	m.rows = nil
	if m.root != nil {
		query := strings.ToLower(strings.TrimSpace(m.pathBuf.Value()))
		if query != "" {
			for _, f := range m.root.Files() {
				if strings.Contains(strings.ToLower(f.Path), query) {
					m.rows = append(m.rows, logRow{node: f})
				}
			}
		} else {
			m.rows = m.appendVisible(m.rows, m.root.Children, 0)
		}
	}
	m.tree.Resize(len(m.rows))
}

func (m LogsModel) appendVisible(rows []logRow, nodes []api.LogNode, depth int) []logRow {
	for _, n := range nodes {
		rows = append(rows, logRow{node: n, depth: depth})
		if n.Dir && m.expanded[n.Path] {
			rows = m.appendVisible(rows, n.Children, depth+1)
		}
	}
	return rows
}

// toggleDir opens or closes a folder. Closing also closes every folder
// underneath it.
func (m *LogsModel) toggleDir(path string) {
	if !m.expanded[path] {
		m.expanded[path] = true
		return
	}
	prefix := path + "/"
	for p := range m.expanded {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(m.expanded, p)
		}
	}
}

func (m LogsModel) handleTreeKeys(msg tea.KeyMsg) (LogsModel, tea.Cmd) {
	switch {
	case isDown(msg):
		m.tree.Down()
	case isUp(msg):
		m.tree.Up()
	case isKey(msg, "/"):
		m.treeFind = true
		cmd := m.pathBuf.Focus()
		return m, cmd
	case isKey(msg, "r"):
		return m.Start()
	case isBack(msg):
		if m.pathBuf.Value() != "" {
			m.pathBuf.SetValue("")
			m.rebuildRows()
		}
	case isEnter(msg), isSpace(msg), isRight(msg):
		idx := m.tree.Selected()
		if idx < 0 || idx >= len(m.rows) {
			return m, nil
		}
		node := m.rows[idx].node
		if node.Dir {
			if isRight(msg) && m.expanded[node.Path] {
				return m, nil
			}
			m.toggleDir(node.Path)
			m.rebuildRows()
			return m, nil
		}
		if isRight(msg) {
			return m, nil
		}
		return m.openFile(node.Path)
	case isLeft(msg):
		idx := m.tree.Selected()
		if idx >= 0 && idx < len(m.rows) && m.rows[idx].node.Dir && m.expanded[m.rows[idx].node.Path] {
			m.toggleDir(m.rows[idx].node.Path)
			m.rebuildRows()
		}
	}
	return m, nil
}

func (m LogsModel) handleTreeSearchKeys(msg tea.KeyMsg) (LogsModel, tea.Cmd) {
	switch {
	case isEnter(msg), isDown(msg):
		m.treeFind = false
		m.pathBuf.Blur()
		return m, nil
	case isBack(msg):
		m.treeFind = false
		m.pathBuf.Blur()
		m.pathBuf.SetValue("")
		m.rebuildRows()
		return m, nil
	}
	var cmd tea.Cmd
	m.pathBuf, cmd = m.pathBuf.Update(msg)
	m.rebuildRows()
	return m, cmd
}

func (m LogsModel) renderTree() string {
	searchLine := m.pathBuf.View()
	if !m.treeFind {
		searchLine = MutedStyle.Render("path: " + orDash(m.pathBuf.Value()))
	}
	var body string
	switch {
	case m.loading:
		body = MutedStyle.Render("Loading log index...")
	case m.errText != "":
		body = ErrorStyle.Render(components.SanitizeOneLine(m.errText))
	case len(m.rows) == 0:
		body = MutedStyle.Render("No log files.")
	default:
		body = m.renderTreeRows()
	}
	return components.TitledBox("Logs", searchLine+"\n\n"+body, m.width)
}

func (m LogsModel) renderTreeRows() string {
	flat := strings.TrimSpace(m.pathBuf.Value()) != ""
	contentWidth := components.BoxContentWidth(m.width)
	var b strings.Builder
	start, end := m.tree.Window()
	for abs := start; abs < end && abs < len(m.rows); abs++ {
		r := m.rows[abs]
		indent := strings.Repeat("  ", r.depth)
		var label string
		switch {
		case r.node.Dir && m.expanded[r.node.Path]:
			label = indent + "▾ " + r.node.Name + "/"
		case r.node.Dir:
			label = indent + "▸ " + r.node.Name + "/"
		case flat:
			label = r.node.Path
		default:
			label = indent + "  " + r.node.Name
		}
		label = components.Ellipsize(label, max(contentWidth-16, 12))
		if !r.node.Dir {
			label += "  " + MutedStyle.Render(components.HumanSize(r.node.Size))
		}
		if m.tree.IsSelected(abs) {
			b.WriteString(SelectedStyle.Render("> ") + label)
		} else {
			b.WriteString("  " + NormalStyle.Render(label))
		}
		if abs < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// --- File Viewer ---

func (m LogsModel) openFile(path string) (LogsModel, tea.Cmd) {
	m.Stop()
	m.view = logsViewFile
	m.path = path
	m.records = nil
	m.filtered = nil
	m.errText = ""
	m.focus = logsFocusList
	m.comps = components.NewMultiSelect("Components")
	m.viewer.Reset(0)

	m.streamSeq++
	ctx, cancel := context.WithCancel(context.Background())
	s := &logStream{
		seq:     m.streamSeq,
		records: make(chan api.LogRecord, streamBuffer),
		done:    make(chan error, 1),
		cancel:  cancel,
	}
	m.stream = s
	m.streaming = true

	client := m.client
	return m, func() tea.Msg {
		go func() {
			err := client.StreamLog(ctx, path, func(rec api.LogRecord) error {
				select {
				case s.records <- rec:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			s.done <- err
			close(s.records)
		}()
		return waitForBatch(s)()
	}
}

// waitForBatch blocks for one record, then drains whatever else is ready.
func waitForBatch(s *logStream) tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-s.records
		if !ok {
			return logBatchMsg{seq: s.seq, ended: true, err: <-s.done}
		}
		batch := []api.LogRecord{rec}
		for len(batch) < streamBatch {
			select {
			case rec, ok := <-s.records:
				if !ok {
					return logBatchMsg{seq: s.seq, records: batch, ended: true, err: <-s.done}
				}
				batch = append(batch, rec)
			default:
				return logBatchMsg{seq: s.seq, records: batch}
			}
		}
		return logBatchMsg{seq: s.seq, records: batch}
	}
}

func (m *LogsModel) appendRecords(records []api.LogRecord) {
	grew := false
	for _, rec := range records {
		m.records = append(m.records, rec)
		if rec.Component != "" && m.comps.AddOptions(rec.Component) {
			grew = true
		}
	}
	if grew {
		m.comps.SortOptions()
	}
	m.applyFilters()
}

func recordLevel(rec api.LogRecord) string {
	if rec.Level == "" && rec.IsError() {
		return "ERROR"
	}
	return rec.Level
}

func (m *LogsModel) applyFilters() {
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))
	m.filtered = nil
	for i, rec := range m.records {
		if !m.levels.Allows(recordLevel(rec)) {
			continue
		}
		if rec.Component != "" && !m.comps.Allows(rec.Component) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(rec.Message+" "+rec.Error), query) {
			continue
		}
		m.filtered = append(m.filtered, i)
	}
	m.viewer.Resize(len(m.filtered))
}

func (m LogsModel) handleFileKeys(msg tea.KeyMsg) (LogsModel, tea.Cmd) {
	switch m.focus {
	case logsFocusSearch:
		switch {
		case isEnter(msg), isDown(msg):
			m.focus = logsFocusList
			m.search.Blur()
			return m, nil
		case isBack(msg):
			m.focus = logsFocusList
			m.search.Blur()
			m.search.SetValue("")
			m.applyFilters()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.applyFilters()
		return m, cmd
	case logsFocusLevels, logsFocusComponents:
		sel := m.levels
		if m.focus == logsFocusComponents {
			sel = m.comps
		}
		switch {
		case isUp(msg):
			sel.Up()
		case isDown(msg):
			sel.Down()
		case isSpace(msg), isEnter(msg):
			sel.Toggle()
			m.applyFilters()
		case isKey(msg, "c"):
			sel.Clear()
			m.applyFilters()
		case isBack(msg), isKey(msg, "l", "o"):
			m.focus = logsFocusList
		}
		return m, nil
	}

	switch {
	case isBack(msg):
		m.Stop()
		m.view = logsViewTree
		m.errText = ""
	case isDown(msg):
		m.viewer.Down()
	case isUp(msg):
		m.viewer.Up()
	case isKey(msg, "g"):
		m.viewer.Top()
	case isKey(msg, "G"):
		m.viewer.Bottom()
	case isKey(msg, "/"):
		m.focus = logsFocusSearch
		cmd := m.search.Focus()
		return m, cmd
	case isKey(msg, "l"):
		m.focus = logsFocusLevels
	case isKey(msg, "o"):
		m.focus = logsFocusComponents
	case isKey(msg, "r"):
		return m.openFile(m.path)
	case isEnter(msg), isSpace(msg):
		idx := m.viewer.Selected()
		if idx >= 0 && idx < len(m.filtered) {
			m.openRecord = m.filtered[idx]
			m.view = logsViewRecord
		}
	}
	return m, nil
}

func (m LogsModel) renderFile() string {
	searchLine := m.search.View()
	if m.focus != logsFocusSearch {
		searchLine = MutedStyle.Render("search: " + orDash(m.search.Value()))
	}
	filters := []string{searchLine}
	switch m.focus {
	case logsFocusLevels:
		filters = append(filters, m.levels.View(true), MutedStyle.Render(m.comps.Summary()))
	case logsFocusComponents:
		filters = append(filters, MutedStyle.Render(m.levels.Summary()), m.comps.View(true))
	default:
		filters = append(filters, MutedStyle.Render(m.levels.Summary()), MutedStyle.Render(m.comps.Summary()))
	}

	status := fmt.Sprintf("%d of %d records", len(m.filtered), len(m.records))
	if m.streaming {
		status += " · streaming"
	}

	var body string
	switch {
	case m.errText != "" && len(m.records) == 0:
		body = ErrorStyle.Render(components.SanitizeOneLine(m.errText))
	case len(m.filtered) == 0 && m.streaming:
		body = MutedStyle.Render("Waiting for records...")
	case len(m.filtered) == 0:
		body = MutedStyle.Render("No matching records.")
	default:
		body = m.renderRecordRows()
	}
	if m.errText != "" && len(m.records) > 0 {
		body += "\n\n" + ErrorStyle.Render(components.SanitizeOneLine(m.errText))
	}
	rule := Divider(components.BoxContentWidth(m.width))
	content := strings.Join(filters, "\n") + "\n" + MutedStyle.Render(status) + "\n" + rule + "\n" + body
	return components.TitledBox(components.SanitizeOneLine(m.path), content, m.width)
}

func (m LogsModel) renderRecordRows() string {
	grid := components.Grid{
		Columns: []components.Column{
			{Title: "Time", Width: 19},
			{Title: "Level", Width: 8, Style: levelStyle},
			{Title: "Component", Width: 16},
			{Title: "Message", MinWidth: 16},
		},
		Active: -1,
	}
	start, end := m.viewer.Window()
	rows := make([][]string, 0, end-start)
	for i := start; i < end && i < len(m.filtered); i++ {
		rec := m.records[m.filtered[i]]
		if m.viewer.IsSelected(i) {
			grid.Active = len(rows)
		}
		message := rec.Message
		if rec.IsError() && message == "" {
			message = rec.Error
		}
		rows = append(rows, []string{rec.Time, recordLevel(rec), rec.Component, previewMessage(message)})
	}
	return grid.Render(rows, components.BoxContentWidth(m.width))
}

// previewMessage keeps the first line, cut to messagePreview runes.
func previewMessage(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i] + " …"
	}
	r := []rune(msg)
	if len(r) <= messagePreview {
		return msg
	}
	return string(r[:messagePreview]) + "…"
}

// numberLines prefixes every line with its 1-based number.
func numberLines(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	width := len(fmt.Sprint(len(lines)))
	for i, line := range lines {
		lines[i] = MutedStyle.Render(fmt.Sprintf("%*d │ ", width, i+1)) + components.SanitizeOneLine(line)
	}
	return strings.Join(lines, "\n")
}

func (m LogsModel) renderRecord() string {
	if m.openRecord < 0 || m.openRecord >= len(m.records) {
		return ""
	}
	rec := m.records[m.openRecord]
	header := []components.Field{
		{Label: "Time", Value: orDash(rec.Time)},
		{Label: "Level", Value: orDash(recordLevel(rec))},
		{Label: "Component", Value: orDash(rec.Component)},
	}
	title := renderLevel(orDash(recordLevel(rec))) + "  " +
		MutedStyle.Render(fmt.Sprintf("%s · record %d", components.SanitizeOneLine(m.path), m.openRecord+1))
	parts := []string{title, components.Details("Record", header, m.width)}
	if rec.Message != "" {
		parts = append(parts, components.TitledBox("Message", numberLines(rec.Message), m.width))
	}
	if len(rec.Extra) > 0 {
		parts = append(parts, components.FieldsBox("Fields", rec.Extra, m.width))
	}
	if rec.IsError() {
		parts = append(parts, components.ErrorBox("Error", numberLines(rec.Error), m.width))
	}
	return strings.Join(parts, "\n\n")
}

// Hints lists the keys for the current view.
func (m LogsModel) Hints() []string {
	switch m.view {
	case logsViewRecord:
		return []string{components.Hint("esc", "Back")}
	case logsViewFile:
		switch m.focus {
		case logsFocusSearch:
			return []string{components.Hint("enter", "Done"), components.Hint("esc", "Clear")}
		case logsFocusLevels, logsFocusComponents:
			return []string{
				components.Hint("space", "Toggle"),
				components.Hint("c", "Clear"),
				components.Hint("esc", "Done"),
			}
		}
		return []string{
			components.Hint("↑/↓", "Scroll"),
			components.Hint("enter", "Expand"),
			components.Hint("/", "Search"),
			components.Hint("l", "Levels"),
			components.Hint("o", "Components"),
			components.Hint("r", "Reload"),
			components.Hint("esc", "Back"),
		}
	}
	if m.treeFind {
		return []string{components.Hint("enter", "Done"), components.Hint("esc", "Clear")}
	}
	return []string{
		components.Hint("↑/↓", "Scroll"),
		components.Hint("enter", "Open"),
		components.Hint("/", "Path"),
		components.Hint("r", "Refresh"),
	}
}
