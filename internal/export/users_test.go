package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestUsersXLSX(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []UserRow{
		{
			User: api.User{
				ID:       "0b6c1d3e-9f2a-4c55-8e6b-2f3a4b5c6d7e",
				Username: "admin",
				LastSeen: &api.Timestamp{Time: now.Add(-time.Minute)},
			},
			Permissions: []string{"admin", "view-users"},
		},
		{User: api.User{ID: "2", Username: "newbie"}},
		{
			User:        api.User{ID: "3", Username: "idle", LastSeen: &api.Timestamp{Time: now.Add(-48 * time.Hour)}},
			Permissions: []string{"view-users"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, UsersXLSX(&buf, rows, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{UsersSheet}, f.GetSheetList())
	got, err := f.GetRows(UsersSheet)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"ID", "Username", "Status", "Last seen", "Permissions"}, got[0])
	assert.Equal(t, "admin", got[1][1])
	assert.Equal(t, "online", got[1][2])
	assert.Equal(t, "2024-03-01 11:59:00", got[1][3])
	assert.Equal(t, "admin, view-users", got[1][4])
	assert.Equal(t, "awaiting first login", got[2][2])
	assert.Equal(t, "offline", got[3][2])

	panes, err := f.GetPanes(UsersSheet)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
}

func TestUsersXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, UsersXLSX(&buf, nil, time.Now()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(UsersSheet)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
