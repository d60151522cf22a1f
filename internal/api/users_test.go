package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/manage/users", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "15", r.URL.Query().Get("page_size"))
		assert.Equal(t, "al", r.URL.Query().Get("username_filter"))
		w.Write(jsonResponse(map[string]any{
			"users": []map[string]any{
				{"id": testUserID, "username": "alex", "last_seen": "2024-03-01T10:20:30.5"},
				{"id": "2", "username": "alice", "last_seen": nil},
			},
			"page":      2,
			"next_page": true,
		}))
	})

	page, err := client.ListUsers(context.Background(), UserQuery{Page: 2, PageSize: 15, UsernameFilter: "al"})
	require.NoError(t, err)
	require.Len(t, page.Users, 2)
	assert.Equal(t, "alex", page.Users[0].Username)
	require.NotNil(t, page.Users[0].LastSeen)
	assert.Equal(t, 2024, page.Users[0].LastSeen.Year())
	assert.Nil(t, page.Users[1].LastSeen)
	assert.True(t, page.NextPage)
	assert.Equal(t, 2, page.Page)
}

func TestListUsersOmitsZeroQuery(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		w.Write(jsonResponse(map[string]any{"page": 1, "next_page": false}))
	})

	page, err := client.ListUsers(context.Background(), UserQuery{})
	require.NoError(t, err)
	assert.NotNil(t, page.Users)
	assert.Empty(t, page.Users)
}

func TestGetUser(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/manage/users/"+testUserID, r.URL.Path)
		w.Write(jsonResponse(map[string]any{
			"username":     "alex",
			"created":      "2024-01-01T00:00:00",
			"last_updated": "2024-02-01 08:00:00",
			"last_seen":    nil,
		}))
	})

	user, err := client.GetUser(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, testUserID, user.ID)
	assert.Equal(t, "alex", user.Username)
	require.NotNil(t, user.Created)
	require.NotNil(t, user.LastUpdated)
	assert.Equal(t, 8, user.LastUpdated.Hour())
	assert.Nil(t, user.LastSeen)
}

func TestUserScopedCallsRejectBadID(t *testing.T) {
	var hits int
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
	})
	ctx := context.Background()

	_, err := client.GetUser(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidUserID)
	assert.ErrorIs(t, client.DeleteUser(ctx, "../permissions"), ErrInvalidUserID)
	_, err = client.GetUserPermissions(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidUserID)
	assert.ErrorIs(t, client.AddUserPermissions(ctx, "x", "view-users"), ErrInvalidUserID)
	assert.ErrorIs(t, client.RemoveUserPermissions(ctx, "x", "view-users"), ErrInvalidUserID)
	assert.Zero(t, hits)

	assert.True(t, ValidUserID(testUserID))
	assert.False(t, ValidUserID("alex"))
}

func TestCreateUser(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/manage/users", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "newbie", body["username"])
		assert.Equal(t, "hunter2", body["password"])
		assert.Equal(t, "hunter2", body["confirm_password"])
		w.WriteHeader(http.StatusCreated)
		w.Write(jsonResponse(map[string]any{"user_id": testUserID}))
	})

	id, err := client.CreateUser(context.Background(), NewUserInput{
		Username:        "newbie",
		Password:        "hunter2",
		ConfirmPassword: "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, testUserID, id)
}

func TestCreateUserConflict(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write(jsonResponse(map[string]any{"error": "User already exists."}))
	})

	_, err := client.CreateUser(context.Background(), NewUserInput{
		Username: "dup", Password: "pw", ConfirmPassword: "pw",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, StatusCode(err))
	assert.Contains(t, err.Error(), "User already exists.")
}

func TestCreateUserValidatesBeforeSending(t *testing.T) {
	var hits int
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
	})

	cases := []struct {
		name  string
		input NewUserInput
		want  string
	}{
		{"missing username", NewUserInput{Password: "pw", ConfirmPassword: "pw"}, "username is required"},
		{"long username", NewUserInput{Username: "abcdefghijklmnopqrstuvwxyz0", Password: "pw", ConfirmPassword: "pw"}, "at most 26"},
		{"missing password", NewUserInput{Username: "a"}, "password is required"},
		{"mismatch", NewUserInput{Username: "a", Password: "pw", ConfirmPassword: "wp"}, "passwords do not match"},
		{"missing confirmation", NewUserInput{Username: "a", Password: "pw"}, "confirmation is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.CreateUser(context.Background(), tc.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
	assert.Zero(t, hits)
}

func TestDeleteUser(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/manage/users/"+testUserID, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteUser(context.Background(), testUserID))
}

func TestUserPresence(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	seen := func(d time.Duration) *Timestamp { return &Timestamp{Time: now.Add(-d)} }

	assert.Equal(t, PresenceNever, User{}.Presence(now))
	assert.Equal(t, "awaiting first login", User{}.PresenceText(now))
	assert.Equal(t, PresenceOnline, User{LastSeen: seen(14 * time.Minute)}.Presence(now))
	assert.Equal(t, PresenceOnline, User{LastSeen: seen(15 * time.Minute)}.Presence(now))
	assert.Equal(t, "online", User{LastSeen: seen(time.Minute)}.PresenceText(now))

	away := User{LastSeen: seen(16 * time.Minute)}
	assert.Equal(t, PresenceAway, away.Presence(now))
	assert.Contains(t, away.PresenceText(now), "last seen ")
}

func TestValidateNewUserReportsField(t *testing.T) {
	err := ValidateNewUser(NewUserInput{Username: "a", Password: "pw", ConfirmPassword: "nope"})
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, FieldConfirmPassword, ie.Field)

	err = ValidateNewUser(NewUserInput{Password: "pw", ConfirmPassword: "pw"})
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, FieldUsername, ie.Field)

	assert.NoError(t, ValidateNewUser(NewUserInput{Username: "a", Password: "pw", ConfirmPassword: "pw"}))
}
