package iocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStore_SQLite(t *testing.T) {
	store, err := NewCacheStore(resultTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, _, err = store.Get("missing")
	assert.Error(t, err, "Expected error for a missing key")

	now := time.Now().Unix()
	require.NoError(t, store.Set("k1", []byte("first"), 1, now-100))
	require.NoError(t, store.Set("k2", []byte("second"), 1, now))

	data, version, ts, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
	assert.Equal(t, 1, version)
	assert.Equal(t, now-100, ts)

	// Set replaces an existing key
	require.NoError(t, store.Set("k1", []byte("replaced"), 2, now))
	data, version, _, err = store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("replaced"), data)
	assert.Equal(t, 2, version)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, now, status.LastEntryTime.Unix())
	assert.Equal(t, now, status.OldestEntryTime.Unix())
	assert.Greater(t, status.TableSizeBytes, int64(0))
}

func TestCacheStore_EmptyStatus(t *testing.T) {
	store, err := NewCacheStore(resultTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Zero(t, status.TotalEntries)
	assert.True(t, status.LastEntryTime.IsZero())
}

func TestCacheStore_NoneBackend(t *testing.T) {
	store, err := NewCacheStore(resultTable, schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("key")
	assert.Error(t, err, "Expected error from Get on none backend")
	assert.NoError(t, store.Set("key", []byte("value"), 1, 1))
	_, _, _, err = store.Get("key")
	assert.Error(t, err, "Set should be a no-op on none backend")

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestCacheStore_InvalidTableName(t *testing.T) {
	_, err := NewCacheStore("cache; DROP TABLE x", schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	assert.Error(t, err)
}

func TestGetCreateTableQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		contains []string
	}{
		{schema.SQLiteBackend, []string{`"result_cache"`, "BLOB"}},
		{schema.MySQLBackend, []string{"`result_cache`", "LONGBLOB"}},
		{schema.PostgreSQLBackend, []string{`"result_cache"`, "BYTEA"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			query := getCreateTableQuery(resultTable, tt.backend)
			for _, s := range tt.contains {
				assert.Contains(t, query, s)
			}
		})
	}
}
