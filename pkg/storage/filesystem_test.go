package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("lesson_plans/a.csv", []byte("id,topic\n"))
	require.NoError(t, err)
	assert.Equal(t, "lesson_plans/a.csv", name)

	f, err := store.Open(name)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "id,topic\n", string(data))

	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	assert.Error(t, err)
	assert.NoError(t, store.Delete(name))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.csv", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = store.Open("/etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old.pdf", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("new.pdf", []byte("new"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.pdf"), past, past))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.pdf"}, deleted)

	_, err = os.Stat(filepath.Join(dir, "new.pdf"))
	assert.NoError(t, err)
}

func TestLocalStorageCleanupPrunesDirectoriesAndPartials(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("tutor/plan.csv", []byte("x"))
	require.NoError(t, err)
	partial := filepath.Join(dir, "tutor", tempPrefix+"123")
	require.NoError(t, os.WriteFile(partial, []byte("half"), 0o644))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "tutor", "plan.csv"), past, past))
	require.NoError(t, os.Chtimes(partial, past, past))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"tutor/plan.csv"}, deleted)

	_, err = os.Stat(filepath.Join(dir, "tutor"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestLocalStorageSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("a.pdf", []byte("%PDF"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.pdf", entries[0].Name())
}
