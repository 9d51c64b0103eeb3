package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStore(t *testing.T) {
	t.Run("set and get round trip", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set("watch.dir", "/data/watch"))
		assert.Equal(t, "/data/watch", store.GetString("watch.dir"))
	})

	t.Run("set persists across loads", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewConfigStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.Set("upload.backend", "two-step"))

		reloaded, err := NewConfigStore(dir)
		require.NoError(t, err)
		assert.Equal(t, "two-step", reloaded.GetString("upload.backend"))
	})

	t.Run("nested toml flattens to dotted keys", func(t *testing.T) {
		dir := t.TempDir()
		config := "[remote]\nbase_url = \"http://localhost/v1\"\ntimeout_seconds = 30\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(config), 0o600))

		store, err := NewConfigStore(dir)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost/v1", store.GetString("remote.base_url"))
		assert.Equal(t, 30, store.GetInt("remote.timeout_seconds"))
	})

	t.Run("environment override wins", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set("remote.base_url", "http://from-file"))

		t.Setenv("KBSYNC_REMOTE_BASE_URL", "http://from-env")
		assert.Equal(t, "http://from-env", store.GetString("remote.base_url"))
	})

	t.Run("environment ints and bools parse", func(t *testing.T) {
		store := newStore(t)
		t.Setenv("KBSYNC_UPLOAD_MAX_BYTES", "1024")
		t.Setenv("KBSYNC_COLLECTIONS_PARENT_CHILD", "true")

		assert.Equal(t, 1024, store.GetInt("upload.max_bytes"))
		assert.True(t, store.GetBool("collections.parent_child"))
	})

	t.Run("environment slices are comma separated", func(t *testing.T) {
		store := newStore(t)
		t.Setenv("KBSYNC_WATCH_EXTENSIONS", ".txt, .md,.pdf")
		assert.Equal(t, []string{".txt", ".md", ".pdf"}, store.GetStringSlice("watch.extensions"))
	})

	t.Run("missing keys have zero values", func(t *testing.T) {
		store := newStore(t)
		assert.Equal(t, "", store.GetString("nope"))
		assert.Equal(t, 0, store.GetInt("nope"))
		assert.False(t, store.GetBool("nope"))
		assert.Nil(t, store.GetStringSlice("nope"))
	})
}

func TestLoadSettings(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		store := newStore(t)
		s := LoadSettings(store)

		assert.Equal(t, 5*time.Second, s.ProcessInterval)
		assert.Equal(t, "create-by-file", s.UploadBackend)
		assert.NotEmpty(t, s.AllowedExtensions)
	})

	t.Run("store values override defaults", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(KeyWatchDir, "/data/watch"))
		require.NoError(t, store.Set(KeyWatchProcessInterval, 10))
		require.NoError(t, store.Set(KeyRemoteBaseURL, "http://localhost/v1"))
		require.NoError(t, store.Set(KeyCollectionIndex, "idx"))
		require.NoError(t, store.Set(KeyUploadBackend, "session"))

		s := LoadSettings(store)
		assert.Equal(t, "/data/watch", s.MonitorDir)
		assert.Equal(t, 10*time.Second, s.ProcessInterval)
		assert.Equal(t, "http://localhost/v1", s.BaseURL)
		assert.Equal(t, "idx", s.IndexCollectionID)
		assert.Equal(t, "session", s.UploadBackend)
	})

	t.Run("credentials loaded from environment", func(t *testing.T) {
		store := newStore(t)
		t.Setenv("KBSYNC_REMOTE_DATASET_API_KEY", "ds-key")
		t.Setenv("KBSYNC_REMOTE_CHATFLOW_API_KEY", "cf-key")

		s := LoadSettings(store)
		assert.Equal(t, "ds-key", s.DatasetAPIKey)
		assert.Equal(t, "cf-key", s.ChatflowAPIKey)
	})
}
