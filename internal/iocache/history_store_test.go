package iocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldfishcenter/landings/schema"
)

func newSQLiteHistoryStore(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	impl, ok := store.(*HistoryStoreImpl)
	require.True(t, ok)
	return impl
}

func monthMillis(year int, month time.Month) int64 {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func TestHistoryStoreRecordsRun(t *testing.T) {
	store := newSQLiteHistoryStore(t)
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	runID, err := store.BeginRun(start, "nungwi", schema.MedianCPUE, schema.StaticSource)
	require.NoError(t, err)
	assert.Positive(t, runID)

	points := []schema.TimeSeriesPoint{
		{Timestamp: monthMillis(2023, time.January), Value: schema.Float(2.5)},
		{Timestamp: monthMillis(2023, time.February)},
	}
	require.NoError(t, store.RecordPoints(runID, "nungwi", schema.MedianCPUE, points))
	require.NoError(t, store.EndRun(runID, start.Add(1500*time.Millisecond), len(points)))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.True(t, run.StartTime.Equal(start))
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(1500), *run.RunDurationMs)
	assert.Equal(t, "nungwi", run.Site)
	assert.Equal(t, "median_cpue", run.Metric)
	assert.Equal(t, "static", run.Source)
	assert.Equal(t, int32(2), run.TotalPoints)

	stored, err := store.GetAllPoints()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.NotNil(t, stored[0].Value)
	assert.InDelta(t, 2.5, *stored[0].Value, 1e-9)
	assert.Nil(t, stored[1].Value, "gaps are stored as NULL")
	assert.Equal(t, monthMillis(2023, time.February), stored[1].Timestamp.UnixMilli())
}

func TestHistoryStoreStatus(t *testing.T) {
	store := newSQLiteHistoryStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Zero(t, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[queryRunsTable])

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := range 3 {
		runID, err := store.BeginRun(start.Add(time.Duration(i)*time.Minute), "all", schema.Catch, schema.APISource)
		require.NoError(t, err)
		require.NoError(t, store.RecordPoints(runID, "all", schema.Catch, []schema.TimeSeriesPoint{
			{Timestamp: monthMillis(2023, time.January), Value: schema.Float(float64(i))},
		}))
		require.NoError(t, store.EndRun(runID, start.Add(time.Hour), 1))
	}

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, int64(3), status.LastRunID)
	assert.True(t, status.LastRunTime.Equal(start.Add(2*time.Minute)))
	assert.True(t, status.OldestRunTime.Equal(start))
	assert.Equal(t, 3, status.TotalPoints)
	assert.Equal(t, int64(3), status.TableSizes[seriesPointsTable])
}

func TestHistoryStoreNoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(time.Now(), "all", schema.Catch, schema.StaticSource)
	require.NoError(t, err)
	assert.Zero(t, runID)
	assert.NoError(t, store.RecordPoints(runID, "all", schema.Catch, []schema.TimeSeriesPoint{{Timestamp: 1}}))
	assert.NoError(t, store.EndRun(runID, time.Now(), 1))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, store.Close())
}

func TestNewHistoryStoreRejectsRedis(t *testing.T) {
	_, err := NewHistoryStore(schema.RedisBackend, "redis://localhost:6379")
	assert.Error(t, err)
}

func TestMigrateHistorySQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	result, err := MigrateHistory(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, uint(2), result.To)

	result, err = MigrateHistory(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.False(t, result.Changed, "already at the latest version")

	// The store works on a migrated database.
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	_, err = store.BeginRun(time.Now(), "wete", schema.MedianRPUE, schema.StaticSource)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	result, err = MigrateHistory(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), result.To)

	result, err = MigrateHistory(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)
	assert.True(t, result.Changed)
}

func TestMigrateHistoryUnsupported(t *testing.T) {
	_, err := MigrateHistory(schema.NoneBackend, "", -1)
	assert.Error(t, err)

	_, err = MigrateHistory(schema.RedisBackend, "redis://localhost:6379", -1)
	assert.Error(t, err)
}
