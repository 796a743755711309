package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager() {
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test
	Manager = &StoreManager{}
}

func TestInitStores(t *testing.T) {
	t.Run("cache and runs", func(t *testing.T) {
		resetManager()
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		runsPath := filepath.Join(dir, "runs.db")

		err := InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, runsPath)
		require.NoError(t, err)
		assert.NotNil(t, Manager.GetCacheStore())
		assert.NotNil(t, Manager.GetRunStore())

		CloseStores()
		assert.FileExists(t, cachePath)
		assert.FileExists(t, runsPath)
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetManager()
		cachePath := filepath.Join(t.TempDir(), "cache.db")

		assert.NoError(t, InitStores(schema.SQLiteBackend, cachePath, "", ""))
		assert.NoError(t, InitStores(schema.SQLiteBackend, cachePath, "", ""))

		// Multiple closes should be safe (sync.Once)
		CloseStores()
		CloseStores()
	})

	t.Run("disabled stores", func(t *testing.T) {
		resetManager()
		require.NoError(t, InitStores("", "", "", ""))
		assert.Nil(t, Manager.GetCacheStore())
		assert.Nil(t, Manager.GetRunStore())
		CloseStores()
	})

	t.Run("none backend", func(t *testing.T) {
		resetManager()
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		assert.NotNil(t, Manager.GetCacheStore())
		assert.NotNil(t, Manager.GetRunStore())
		CloseStores()
	})

	t.Run("invalid backend", func(t *testing.T) {
		resetManager()
		err := InitStores("oracle", "", "", "")
		assert.Error(t, err)
		assert.Nil(t, Manager.GetCacheStore())
	})
}

func TestClearCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(resultTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", []byte("v"), 1, time.Now().Unix()))
	require.NoError(t, store.Close())

	require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine
	assert.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	assert.Error(t, ClearCache("oracle", "", ""))
}

func TestClearRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := NewRunStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearRuns(schema.SQLiteBackend, path, ""))
	assert.NoFileExists(t, path)
}
