package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveReadDelete(t *testing.T) {
	store, err := NewLocalStorage(filepath.Join(t.TempDir(), "exports"))
	require.NoError(t, err)

	rel, err := store.Save("coach-pack/pack.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "coach-pack/pack.csv", rel)

	data, err := store.Read(rel)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	names, err := store.List("coach-pack")
	require.NoError(t, err)
	assert.Equal(t, []string{"coach-pack/pack.csv"}, names)

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))
	_, err = store.Read(rel)
	require.Error(t, err)
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.txt", []byte("x"))
	require.ErrorIs(t, err, ErrOutsideBase)
	_, err = store.Read("/etc/hostname")
	require.ErrorIs(t, err, ErrOutsideBase)
}

func TestLocalStorageListMissingDir(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	names, err := store.List("backups")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("backups/old.json", []byte("{}"))
	require.NoError(t, err)
	_, err = store.Save("backups/new.json", []byte("{}"))
	require.NoError(t, err)

	now := time.Now()
	old := now.Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("backups/old.json"), old, old))

	deleted, err := store.CleanupOlderThan("backups", 24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"backups/old.json"}, deleted)

	names, err := store.List("backups")
	require.NoError(t, err)
	assert.Equal(t, []string{"backups/new.json"}, names)
}
