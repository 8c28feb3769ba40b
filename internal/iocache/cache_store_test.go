package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldfishcenter/landings/schema"
)

func newSQLiteCacheStore(t *testing.T) *SQLSnapshotStore {
	t.Helper()
	store, err := NewCacheStore(snapshotTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	impl, ok := store.(*SQLSnapshotStore)
	require.True(t, ok)
	return impl
}

func TestCacheStoreSQLiteRoundTrip(t *testing.T) {
	store := newSQLiteCacheStore(t)

	_, _, _, err := store.Get("static:data")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.True(t, IsMiss(err))

	now := time.Now().Unix()
	require.NoError(t, store.Set("static:data", []byte(`[{"a":1}]`), 1, now))

	value, version, ts, err := store.Get("static:data")
	require.NoError(t, err)
	assert.Equal(t, `[{"a":1}]`, string(value))
	assert.Equal(t, 1, version)
	assert.Equal(t, now, ts)

	// Set replaces the existing entry.
	require.NoError(t, store.Set("static:data", []byte(`[]`), 2, now+10))
	value, version, ts, err = store.Get("static:data")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(value))
	assert.Equal(t, 2, version)
	assert.Equal(t, now+10, ts)
}

func TestCacheStoreSQLiteStatus(t *testing.T) {
	store := newSQLiteCacheStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalEntries)

	require.NoError(t, store.Set("a", []byte("x"), 1, 1000))
	require.NoError(t, store.Set("b", []byte("y"), 1, 2000))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
	assert.Greater(t, status.TableSizeBytes, int64(0))
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore(snapshotTable, schema.NoneBackend, "")
	require.NoError(t, err)

	require.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.True(t, IsMiss(err))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreRejectsBadInput(t *testing.T) {
	_, err := NewCacheStore("bad-name;", schema.SQLiteBackend, "")
	assert.Error(t, err)

	_, err = NewCacheStore(snapshotTable, schema.DatabaseBackend("mongo"), "")
	assert.Error(t, err)
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"$1", "$2", "$3"}, placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, []string{"?", "?"}, placeholders(schema.MySQLBackend, 2))
	assert.Equal(t, []string{"?"}, placeholders(schema.SQLiteBackend, 1))
}

func TestSQLiteTimeRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 123456789, time.UTC)
	s, ok := formatTime(ts, schema.SQLiteBackend).(string)
	require.True(t, ok)

	got, err := parseSQLiteTime(s)
	require.NoError(t, err)
	assert.True(t, got.Equal(ts))
}
