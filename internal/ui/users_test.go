package ui

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/mirrorctl/internal/access"
	"github.com/gravitrone/mirrorctl/internal/api"
)

type fakeUsersAPI struct {
	mu       sync.Mutex
	queries  []string
	created  []api.NewUserInput
	deleted  []string
	granted  []string
	conflict bool
}

func (f *fakeUsersAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/manage/users":
			f.queries = append(f.queries, r.URL.RawQuery)
			writeJSON(w, map[string]any{
				"users": []map[string]any{
					{"id": testUserID, "username": "alice", "last_seen": "2026-10-14T11:55:00"},
					{"id": otherUserID, "username": "bob"},
				},
				"page":      1,
				"next_page": true,
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/manage/users":
			var in api.NewUserInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			f.created = append(f.created, in)
			if f.conflict {
				w.WriteHeader(http.StatusConflict)
				writeJSON(w, map[string]any{"detail": "exists"})
				return
			}
			writeJSON(w, map[string]any{"user_id": otherUserID})
		case r.URL.Path == "/api/manage/permissions":
			writeJSON(w, map[string]any{"permissions": []map[string]string{
				{"key": "admin", "description": "Everything"},
				{"key": "manage-users", "description": "Create and delete users"},
				{"key": "modify-users", "description": "Edit permissions"},
				{"key": "view-users", "description": "List users"},
			}})
		case strings.HasSuffix(r.URL.Path, "/permissions"):
			if r.Method == http.MethodPut {
				body, _ := io.ReadAll(r.Body)
				f.granted = append(f.granted, string(body))
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeJSON(w, map[string]any{"permissions": []string{"view-users"}})
		case strings.HasPrefix(r.URL.Path, "/api/manage/users/"):
			id := strings.TrimPrefix(r.URL.Path, "/api/manage/users/")
			if r.Method == http.MethodDelete {
				f.deleted = append(f.deleted, id)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeJSON(w, map[string]any{"id": id, "username": "alice", "created": "2026-01-02T12:04:05"})
		default:
			http.NotFound(w, r)
		}
	}
}

func newTestUsers(t *testing.T, perms ...string) (UsersModel, *fakeUsersAPI) {
	t.Helper()
	fake := &fakeUsersAPI{}
	_, client := testClient(t, fake.handler(t))
	m := NewUsersModel(client, 25, nil)
	m.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	m.setSize(100, 30)
	if perms != nil {
		m.SetRights(access.NewRights(perms))
	}
	return m, fake
}

func loadedUsers(t *testing.T, m UsersModel) UsersModel {
	t.Helper()
	m, cmd := m.Start()
	require.NotNil(t, cmd)
	msg, ok := cmd().(usersLoadedMsg)
	require.True(t, ok)
	m, _ = m.Update(msg)
	return m
}

func usersType(m UsersModel, text string) UsersModel {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestUsersStartLoadsPage(t *testing.T) {
	m, fake := newTestUsers(t)
	m = loadedUsers(t, m)

	assert.False(t, m.loading)
	assert.Len(t, m.items, 2)
	assert.True(t, m.nextPage)
	require.Len(t, fake.queries, 1)
	assert.Contains(t, fake.queries[0], "page_size=25")

	out := m.View()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "online")
	assert.Contains(t, out, "awaiting first login")
}

func TestUsersIgnoresStaleLoad(t *testing.T) {
	m, _ := newTestUsers(t)
	m, first := m.Start()
	m, _ = m.reload(2)

	m, _ = m.Update(first())
	assert.True(t, m.loading)
	assert.Empty(t, m.items)
}

func TestUsersPagination(t *testing.T) {
	m, fake := newTestUsers(t)
	m = loadedUsers(t, m)

	m, cmd := m.Update(keyRunes("n"))
	require.NotNil(t, cmd)
	assert.Equal(t, 2, m.page)
	cmd()
	assert.Contains(t, fake.queries[1], "page=2")

	// a page flip is refused while loading
	m, cmd = m.Update(keyRunes("p"))
	assert.Nil(t, cmd)
}

func TestUsersFilterDebounce(t *testing.T) {
	m, fake := newTestUsers(t)
	m = loadedUsers(t, m)

	m, _ = m.Update(keyRunes("/"))
	require.True(t, m.Capturing())
	m = usersType(m, "ali")
	assert.Equal(t, "ali", m.filter.Value())
	assert.Equal(t, 3, m.filterSeq)

	m, cmd := m.Update(usersFilterTickMsg{seq: 1})
	assert.Nil(t, cmd, "superseded tick must not reload")

	m, cmd = m.Update(usersFilterTickMsg{seq: 3})
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	cmd()
	assert.Contains(t, fake.queries[len(fake.queries)-1], "username_filter=ali")

	m, _ = m.Update(keyEsc())
	assert.False(t, m.Capturing())
	assert.Empty(t, m.filter.Value())
}

func TestUsersAddRequiresManageUsers(t *testing.T) {
	m, _ := newTestUsers(t, "view-users")
	m = loadedUsers(t, m)

	m, cmd := m.Update(keyRunes("a"))
	assert.Equal(t, usersViewList, m.view)
	msg, ok := findMsg[toastMsg](drain(cmd))
	require.True(t, ok)
	assert.Equal(t, toastWarning, msg.level)
}

func TestUsersAddValidatesLocally(t *testing.T) {
	m, fake := newTestUsers(t, "manage-users")
	m = loadedUsers(t, m)

	m, _ = m.Update(keyRunes("a"))
	require.Equal(t, usersViewAdd, m.view)
	m = usersType(m, "carol")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	drain(cmd)

	assert.Equal(t, api.FieldPassword, m.formField)
	assert.Equal(t, userFieldPassword, m.formFocus)
	assert.Contains(t, m.View(), "password is required")
	assert.Empty(t, fake.created)

	m = usersType(m, "pw")
	m, _ = m.Update(keyTab())
	m = usersType(m, "px")
	m, _ = m.Update(keyEnter())
	assert.Equal(t, api.FieldConfirmPassword, m.formField)
	assert.Contains(t, m.formErr, "do not match")
}

func TestUsersAddConflictHighlightsUsername(t *testing.T) {
	m, fake := newTestUsers(t, "manage-users")
	fake.conflict = true
	m = loadedUsers(t, m)

	m, _ = m.Update(keyRunes("a"))
	m = usersType(m, "alice")
	m, _ = m.Update(keyEnter())
	m = usersType(m, "pw")
	m, _ = m.Update(keyEnter())
	m = usersType(m, "pw")
	m, cmd := m.Update(keyEnter())
	require.NotNil(t, cmd)
	assert.True(t, m.formSaving)

	m, _ = m.Update(cmd())
	assert.False(t, m.formSaving)
	assert.Equal(t, "username is already taken", m.formErr)
	assert.Equal(t, userFieldUsername, m.formFocus)
	require.Len(t, fake.created, 1)
	assert.Equal(t, "alice", fake.created[0].Username)
}

func TestUsersAddSuccessReturnsToList(t *testing.T) {
	m, _ := newTestUsers(t, "admin")
	m = loadedUsers(t, m)

	m, _ = m.Update(keyRunes("a"))
	m = usersType(m, "dave")
	m, _ = m.Update(keyDown())
	m = usersType(m, "pw")
	m, _ = m.Update(keyDown())
	m = usersType(m, "pw")
	m, cmd := m.Update(keyEnter())
	require.NotNil(t, cmd)

	created, ok := cmd().(userCreatedMsg)
	require.True(t, ok)
	assert.Equal(t, otherUserID, created.id)

	m, cmd = m.Update(created)
	assert.Equal(t, usersViewList, m.view)
	msgs := drain(cmd)
	t1, ok := findMsg[toastMsg](msgs)
	require.True(t, ok)
	assert.Equal(t, "User dave created", t1.text)
	_, ok = findMsg[usersLoadedMsg](msgs)
	assert.True(t, ok)
}

func openUserDetail(t *testing.T, m UsersModel) UsersModel {
	t.Helper()
	m, cmd := m.Update(keyEnter())
	require.Equal(t, usersViewDetail, m.view)
	require.NotNil(t, cmd)
	msg, ok := cmd().(userDetailLoadedMsg)
	require.True(t, ok, "detail load failed")
	m, _ = m.Update(msg)
	return m
}

func TestUsersDetailBuildsEditor(t *testing.T) {
	m, _ := newTestUsers(t, "modify-users")
	m = loadedUsers(t, m)
	m = openUserDetail(t, m)

	require.True(t, m.hasEditor)
	assert.True(t, m.editor.Box().AllowEdits())
	assert.Equal(t, []string{"view-users"}, m.editor.Box().Editable())
	out := m.View()
	assert.Contains(t, out, "view-users")
	assert.Contains(t, out, "2026-01-02")
}

func TestUsersDetailReadOnlyWithoutModifyUsers(t *testing.T) {
	m, _ := newTestUsers(t, "view-users")
	m = loadedUsers(t, m)
	m = openUserDetail(t, m)

	require.True(t, m.hasEditor)
	assert.False(t, m.editor.Box().AllowEdits())
	assert.Equal(t, []string{"view-users"}, m.editor.Box().Immutable())
}

func TestUsersDetailIgnoresOtherUser(t *testing.T) {
	m, _ := newTestUsers(t)
	m = loadedUsers(t, m)
	m, _ = m.Update(keyEnter())

	m, _ = m.Update(userDetailLoadedMsg{user: &api.User{ID: otherUserID}})
	assert.False(t, m.hasEditor)
	assert.True(t, m.detailLoading)
}

func TestUsersDetailGrantsPermission(t *testing.T) {
	m, fake := newTestUsers(t, "modify-users")
	m = loadedUsers(t, m)
	m = openUserDetail(t, m)

	m, _ = m.Update(keyRunes("e"))
	require.True(t, m.editor.Focused())
	m, _ = m.Update(keyRunes("a"))
	require.True(t, m.Capturing())
	m = usersType(m, "manage-users")
	m, cmd := m.Update(keyEnter())
	require.NotNil(t, cmd)

	m, _ = m.Update(cmd())
	assert.Equal(t, []string{"view-users", "manage-users"}, m.editor.Box().Editable())
	require.Len(t, fake.granted, 1)
	assert.JSONEq(t, `{"permissions":["manage-users"]}`, fake.granted[0])

	m, _ = m.Update(keyEsc())
	assert.False(t, m.editor.Focused())
	assert.Equal(t, usersViewDetail, m.view)
	m, _ = m.Update(keyEsc())
	assert.Equal(t, usersViewList, m.view)
}

func TestUsersDeleteConfirm(t *testing.T) {
	m, fake := newTestUsers(t, "manage-users")
	m = loadedUsers(t, m)

	m, _ = m.Update(keyRunes("d"))
	require.Equal(t, usersViewConfirmDelete, m.view)
	assert.Contains(t, m.View(), "Delete alice?")

	m, cmd := m.Update(keyRunes("y"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(userDeletedMsg)
	require.True(t, ok)
	assert.Equal(t, []string{testUserID}, fake.deleted)

	m, cmd = m.Update(msg)
	assert.Equal(t, usersViewList, m.view)
	assert.Nil(t, m.deleteTarget)
	_, ok = findMsg[toastMsg](drain(cmd))
	assert.True(t, ok)
}

func TestUsersDeleteCancel(t *testing.T) {
	m, fake := newTestUsers(t, "manage-users")
	m = loadedUsers(t, m)

	m, _ = m.Update(keyRunes("d"))
	m, cmd := m.Update(keyRunes("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, usersViewList, m.view)
	assert.Empty(t, fake.deleted)
}

func TestDescribeCreateError(t *testing.T) {
	msg, field := describeCreateError(&api.InputError{Field: api.FieldPassword, Message: "password is required"})
	assert.Equal(t, "password is required", msg)
	assert.Equal(t, api.FieldPassword, field)

	msg, field = describeCreateError(&api.StatusError{Code: http.StatusConflict})
	assert.Equal(t, "username is already taken", msg)
	assert.Equal(t, api.FieldUsername, field)

	_, field = describeCreateError(&api.StatusError{Code: http.StatusInternalServerError})
	assert.Empty(t, field)
}
