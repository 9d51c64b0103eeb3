package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintOf(t *testing.T) {
	t.Run("existing file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

		fp := FingerprintOf(path)
		assert.Equal(t, path, fp.Path)
		assert.Equal(t, int64(5), fp.Size)
		assert.False(t, fp.ModTime.IsZero())
	})

	t.Run("missing file degrades to path only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.txt")
		fp := FingerprintOf(path)
		assert.Equal(t, path, fp.Path)
		assert.Zero(t, fp.Size)
		assert.True(t, fp.ModTime.IsZero())
	})

	t.Run("same state yields same key", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

		assert.Equal(t, FingerprintOf(path).Key(), FingerprintOf(path).Key())
	})

	t.Run("size change yields new key", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
		before := FingerprintOf(path).Key()

		require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))
		assert.NotEqual(t, before, FingerprintOf(path).Key())
	})
}

func TestFileInfoOf(t *testing.T) {
	t.Run("existing file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "Report.DOCX")
		require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

		info, err := FileInfoOf(path)
		require.NoError(t, err)
		assert.Equal(t, "Report.DOCX", info.Name)
		assert.Equal(t, ".docx", info.Extension)
		assert.Equal(t, int64(7), info.Size)
		assert.False(t, info.UpdatedAt.IsZero())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := FileInfoOf(filepath.Join(t.TempDir(), "missing.txt"))
		assert.Error(t, err)
	})
}

func TestIsImageExtension(t *testing.T) {
	assert.True(t, IsImageExtension(".jpg"))
	assert.True(t, IsImageExtension(".PNG"))
	assert.True(t, IsImageExtension(".webp"))
	assert.False(t, IsImageExtension(".docx"))
	assert.False(t, IsImageExtension(""))
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "created", EventCreated.String())
	assert.Equal(t, "modified", EventModified.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}
