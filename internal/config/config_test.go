package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/mirrorctl/internal/api"
)

// isolate points the config at a fresh temp home.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(PathEnv, "")
}

func writeRaw(t *testing.T, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(Path()), dirMode))
	require.NoError(t, os.WriteFile(Path(), []byte(data), fileMode))
}

func TestSaveCreatesPrivateFiles(t *testing.T) {
	isolate(t)
	require.NoError(t, (&Config{APIKey: "mm_key"}).Save())

	info, err := os.Stat(Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())

	dir, err := os.Stat(filepath.Dir(Path()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(dirMode), dir.Mode().Perm())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	isolate(t)
	want := Config{
		APIKey:   "mm_verylongkeystring12345",
		Server:   "https://mirror.example.com/",
		UserID:   "0b6c1d3e-9f2a-4c55-8e6b-2f3a4b5c6d7e",
		Username: "admin",
		PerPage:  40,
		LogFile:  "/tmp/mirrorctl.log",
		Debug:    true,
	}
	require.NoError(t, want.Save())

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, want, *got)
	assert.Equal(t, "https://mirror.example.com", got.BaseURL())
	assert.Equal(t, 40, got.PageSize())
}

func TestSaveTightensExistingFile(t *testing.T) {
	isolate(t)
	require.NoError(t, (&Config{APIKey: "key1"}).Save())
	require.NoError(t, os.Chmod(Path(), 0o644))
	require.NoError(t, (&Config{APIKey: "key2"}).Save())

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "key2", got.APIKey)
}

func TestPathEnvOverride(t *testing.T) {
	isolate(t)
	custom := filepath.Join(t.TempDir(), "nested", "mirrorctl.yaml")
	t.Setenv(PathEnv, custom)
	assert.Equal(t, custom, Path())

	require.NoError(t, (&Config{APIKey: "k"}).Save())
	_, err := os.Stat(custom)
	assert.NoError(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Config{APIKey: "k"}
	assert.Equal(t, api.DefaultBaseURL, cfg.BaseURL())
	assert.Equal(t, DefaultPageSize, cfg.PageSize())
	assert.Equal(t, api.DefaultBaseURL, cfg.Client().BaseURL())
}

func TestLoadFailures(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T)
		want  string
	}{
		{"missing", func(t *testing.T) {}, "not found"},
		{"open permissions", func(t *testing.T) {
			require.NoError(t, (&Config{APIKey: "k"}).Save())
			require.NoError(t, os.Chmod(Path(), 0o644))
		}, "too open"},
		{"bad yaml", func(t *testing.T) { writeRaw(t, "api_key: [unterminated\n") }, "parse config"},
		{"no key", func(t *testing.T) { writeRaw(t, "username: admin\n") }, "config missing api_key"},
		{"negative page size", func(t *testing.T) { writeRaw(t, "api_key: k\npage_size: -1\n") }, "page_size must not be negative"},
		{"bad user id", func(t *testing.T) { writeRaw(t, "api_key: k\nuser_id: admin\n") }, "user_id is not a valid uuid"},
		{"bad base url", func(t *testing.T) { writeRaw(t, "api_key: k\nbase_url: not a url\n") }, "base_url is not a valid url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			tc.setup(t)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestMissingConfigWrapsNotExist(t *testing.T) {
	isolate(t)
	_, err := Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
