package ui

import (
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/config"
	"github.com/gravitrone/mirrorctl/internal/pillbox"
)

func appHandler(healthy bool, perms ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/health":
			if !healthy {
				w.WriteHeader(http.StatusServiceUnavailable)
				writeJSON(w, map[string]string{"detail": "down"})
				return
			}
			writeJSON(w, map[string]string{"status": "ok"})
		case strings.HasSuffix(r.URL.Path, "/permissions"):
			writeJSON(w, map[string]any{"permissions": perms})
		case r.URL.Path == "/api/manage/users":
			writeJSON(w, map[string]any{"users": []map[string]string{{"id": testUserID, "username": "alice"}}})
		case r.URL.Path == "/api/accounts":
			writeJSON(w, map[string]any{"accounts": []map[string]string{}})
		case r.URL.Path == "/api/manage/logs":
			writeJSON(w, map[string]any{"_type": "directory"})
		default:
			http.NotFound(w, r)
		}
	}
}

func newTestApp(t *testing.T, handler http.HandlerFunc, userID string) App {
	t.Helper()
	_, client := testClient(t, handler)
	app := NewApp(client, &config.Config{UserID: userID}, nil)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model.(App)
}

func appUpdate(t *testing.T, app App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	next, ok := model.(App)
	require.True(t, ok)
	return next, cmd
}

func runStartup(t *testing.T, app App) (App, []tea.Msg) {
	t.Helper()
	init := app.Init()
	require.NotNil(t, init)
	msg, ok := init().(probeDoneMsg)
	require.True(t, ok)
	app, cmd := appUpdate(t, app, msg)
	return app, drain(cmd)
}

func TestAppStartupLoadsRights(t *testing.T) {
	app := newTestApp(t, appHandler(true, "modify-users", "view-users"), testUserID)
	app, msgs := runStartup(t, app)

	assert.False(t, app.probe.running)
	assert.Equal(t, "ok", app.probe.api)
	assert.Equal(t, "ok", app.probe.perms)
	assert.True(t, app.rights.CanEditPermissions())
	assert.False(t, app.rights.CanManageUsers())
	assert.True(t, app.users.rights.CanEditPermissions())
	require.NotNil(t, app.toasts.current)
	assert.Equal(t, toastSuccess, app.toasts.current.level)

	loaded, ok := findMsg[usersLoadedMsg](msgs)
	require.True(t, ok)
	app, _ = appUpdate(t, app, loaded)
	assert.Len(t, app.users.items, 1)
	assert.Contains(t, app.View(), "alice")
}

func TestAppStartupWithoutUserID(t *testing.T) {
	app := newTestApp(t, appHandler(true), "")
	app, _ = runStartup(t, app)

	assert.Equal(t, "unknown", app.probe.perms)
	assert.False(t, app.rights.Known())
	require.NotNil(t, app.toasts.current)
	assert.Equal(t, toastWarning, app.toasts.current.level)
	assert.Contains(t, app.toasts.current.text, "user_id")
}

func TestAppStartupAPIUnreachable(t *testing.T) {
	app := newTestApp(t, appHandler(false), testUserID)
	app, msgs := runStartup(t, app)

	assert.Equal(t, "unreachable", app.probe.api)
	assert.Equal(t, "skipped", app.probe.perms)
	assert.Equal(t, toastError, app.toasts.current.level)
	assert.False(t, app.users.loading)
	_, ok := findMsg[usersLoadedMsg](msgs)
	assert.False(t, ok)
}

func TestAppHelpToggle(t *testing.T) {
	app := newTestApp(t, appHandler(true), "")

	app, _ = appUpdate(t, app, keyRunes("?"))
	require.Equal(t, overlayHelp, app.overlay)
	assert.Contains(t, app.View(), "Help")

	// keys are swallowed while help is open
	app, _ = appUpdate(t, app, keyRunes("2"))
	assert.Equal(t, tabUsers, app.active)

	app, _ = appUpdate(t, app, keyEsc())
	assert.Equal(t, overlayNone, app.overlay)
}

func TestAppTabSwitching(t *testing.T) {
	app := newTestApp(t, appHandler(true), "")

	app, cmd := appUpdate(t, app, keyRunes("2"))
	assert.Equal(t, tabAccounts, app.active)
	require.NotNil(t, cmd)
	_, ok := cmd().(accountsLoadedMsg)
	assert.True(t, ok)

	app, cmd = appUpdate(t, app, keyRunes("3"))
	assert.Equal(t, tabLogs, app.active)
	require.NotNil(t, cmd)
	_, ok = cmd().(logTreeLoadedMsg)
	assert.True(t, ok)

	app, _ = appUpdate(t, app, keyRight())
	assert.Equal(t, tabUsers, app.active)
	app, _ = appUpdate(t, app, keyLeft())
	assert.Equal(t, tabLogs, app.active)

	app, _ = appUpdate(t, app, keyDown())
	assert.False(t, app.onTabs)
	app, _ = appUpdate(t, app, keyUp())
	assert.True(t, app.onTabs)
}

func TestAppRoutesMessagesToOwningTab(t *testing.T) {
	app := newTestApp(t, appHandler(true), "")
	require.Equal(t, tabUsers, app.active)

	app, _ = appUpdate(t, app, accountsLoadedMsg{seq: app.accounts.loadSeq, page: &api.AccountPage{
		Accounts: []api.Account{{Domain: "youtube.com", Name: "lofi-girl"}},
	}})
	assert.Len(t, app.accounts.items, 1)
	assert.Empty(t, app.users.items)
}

func TestAppNoticeBecomesToast(t *testing.T) {
	app := newTestApp(t, appHandler(true), "")

	n := pillbox.FailureNotice(&pillbox.CollaboratorError{Op: pillbox.OpAdd, Value: "view-users", Err: pillbox.ErrRejected})
	app, cmd := appUpdate(t, app, noticeMsg{notice: n})
	assert.NotNil(t, cmd)
	require.NotNil(t, app.toasts.current)
	assert.Equal(t, toastError, app.toasts.current.level)
	assert.Contains(t, app.toasts.current.text, "Add failed")
	assert.Contains(t, app.View(), "Add failed")
}

func TestAppStaleToastClearIgnored(t *testing.T) {
	app := newTestApp(t, appHandler(true), "")

	app, _ = appUpdate(t, app, toastMsg{level: toastInfo, text: "first"})
	app, _ = appUpdate(t, app, toastMsg{level: toastInfo, text: "second"})

	app, _ = appUpdate(t, app, clearToastMsg{seq: app.toasts.seq - 1})
	require.NotNil(t, app.toasts.current)
	assert.Equal(t, "second", app.toasts.current.text)

	app, _ = appUpdate(t, app, clearToastMsg{seq: app.toasts.seq})
	assert.Nil(t, app.toasts.current)
}

func TestAppQuitConfirmWithUnsavedInput(t *testing.T) {
	app := newTestApp(t, appHandler(true), "")
	app.users.view = usersViewAdd
	app.users.form[userFieldUsername].SetValue("carol")

	app, cmd := appUpdate(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd)
	require.Equal(t, overlayQuit, app.overlay)
	assert.Contains(t, app.View(), "unsaved input")

	app, _ = appUpdate(t, app, keyRunes("n"))
	assert.Equal(t, overlayNone, app.overlay)

	app, _ = appUpdate(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	_, cmd = appUpdate(t, app, keyRunes("y"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppQuitWithoutUnsavedInput(t *testing.T) {
	app := newTestApp(t, appHandler(true), "")

	_, cmd := appUpdate(t, app, keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppRecoveryHints(t *testing.T) {
	app := newTestApp(t, appHandler(true), "")

	app, _ = appUpdate(t, app, errMsg{err: &api.StatusError{Code: http.StatusUnauthorized, Message: "bad key"}})
	assert.True(t, app.recoverable)
	assert.Contains(t, app.View(), "Recovery")

	app, _ = appUpdate(t, app, keyRunes("c"))
	require.NotNil(t, app.toasts.current)
	assert.Contains(t, app.toasts.current.text, "mirrorctl login")

	app, _ = appUpdate(t, app, errMsg{err: &api.StatusError{Code: http.StatusInternalServerError}})
	assert.False(t, app.recoverable)
}

func TestNeedsLogin(t *testing.T) {
	assert.True(t, needsLogin(&api.StatusError{Code: http.StatusForbidden}))
	assert.True(t, needsLogin(api.ErrInvalidUserID))
	assert.False(t, needsLogin(&api.StatusError{Code: http.StatusNotFound}))
}

func TestTabForKey(t *testing.T) {
	tests := []struct {
		key  string
		want tab
		ok   bool
	}{
		{"1", tabUsers, true},
		{"2", tabAccounts, true},
		{"3", tabLogs, true},
		{"4", 0, false},
		{"0", 0, false},
		{"a", 0, false},
		{"12", 0, false},
	}
	for _, tt := range tests {
		got, ok := tabForKey(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.key)
		}
	}
}

func TestTabStepWraps(t *testing.T) {
	assert.Equal(t, tabLogs, tabUsers.step(-1))
	assert.Equal(t, tabUsers, tabLogs.step(1))
	assert.Equal(t, tabAccounts, tabUsers.step(4))
}

func TestCenterPlacesBlockMidTerminal(t *testing.T) {
	assert.Equal(t, "   ab   \n   cd   ", App{width: 8}.center("ab\ncd"))
	assert.Equal(t, "abc", App{}.center("abc"))
	assert.Equal(t, "abcd", App{width: 3}.center("abcd"))
}

func TestToastLevelTitles(t *testing.T) {
	assert.Equal(t, "Warning", toastWarning.title())
	assert.Equal(t, "Error", toastError.title())
}

func TestToastSlotRender(t *testing.T) {
	var slot toastSlot
	assert.Empty(t, slot.render(80))

	slot.show(toastWarning, "careful\nnow")
	out := slot.render(80)
	assert.Contains(t, out, "Warning")
	assert.Contains(t, out, "careful now")

	slot.expire(slot.seq + 1)
	assert.NotNil(t, slot.current)
	slot.expire(slot.seq)
	assert.Nil(t, slot.current)
}

func TestFromNotice(t *testing.T) {
	level, text := fromNotice(pillbox.Notice{Level: pillbox.LevelSuccess, Text: "saved"})
	assert.Equal(t, toastSuccess, level)
	assert.Equal(t, "saved", text)

	level, text = fromNotice(pillbox.Notice{Title: "Add failed", Text: "rejected"})
	assert.Equal(t, toastError, level)
	assert.Equal(t, "Add failed: rejected", text)
}
