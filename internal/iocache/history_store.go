package iocache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

// Table names for query history.
const (
	queryRunsTable    = "landings_query_runs"
	seriesPointsTable = "landings_series_points"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	switch backend {
	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", backend)
	}

	db, err := openSQL(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{queryRunsTable, getCreateQueryRunsQuery(backend)},
		{seriesPointsTable, getCreateSeriesPointsQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateQueryRunsQuery returns the CREATE TABLE query for landings_query_runs.
func getCreateQueryRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(queryRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				site VARCHAR(100) NOT NULL,
				metric VARCHAR(50) NOT NULL,
				source VARCHAR(20) NOT NULL,
				total_points INT NOT NULL DEFAULT 0
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				site TEXT NOT NULL,
				metric TEXT NOT NULL,
				source TEXT NOT NULL,
				total_points INT NOT NULL DEFAULT 0
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				site TEXT NOT NULL,
				metric TEXT NOT NULL,
				source TEXT NOT NULL,
				total_points INTEGER NOT NULL DEFAULT 0
			);
		`, quotedTableName)
	}
}

// getCreateSeriesPointsQuery returns the CREATE TABLE query for landings_series_points.
func getCreateSeriesPointsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(seriesPointsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				site VARCHAR(100) NOT NULL,
				metric VARCHAR(50) NOT NULL,
				point_time BIGINT NOT NULL,
				point_value DOUBLE,
				PRIMARY KEY (run_id, point_time)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				site TEXT NOT NULL,
				metric TEXT NOT NULL,
				point_time BIGINT NOT NULL,
				point_value DOUBLE PRECISION,
				PRIMARY KEY (run_id, point_time)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				site TEXT NOT NULL,
				metric TEXT NOT NULL,
				point_time INTEGER NOT NULL,
				point_value REAL,
				PRIMARY KEY (run_id, point_time)
			);
		`, quotedTableName)
	}
}

// disabled reports whether the store is a no-op.
func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, site string, metric schema.MetricTag, source schema.DataSource) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	quotedTableName := quoteTableName(queryRunsTable, hs.backend)
	args := []any{formatTime(startTime, hs.backend), site, string(metric), string(source)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, site, metric, source) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		if err := hs.db.QueryRow(query, args...).Scan(&runID); err != nil {
			return 0, fmt.Errorf("failed to insert query run: %w", err)
		}
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, site, metric, source) VALUES (?, ?, ?, ?)`, quotedTableName)
		result, err := hs.db.Exec(query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert query run: %w", err)
		}
		if runID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to read run id: %w", err)
		}
	}
	return runID, nil
}

// RecordPoints stores the series points produced by a run in a single transaction.
func (hs *HistoryStoreImpl) RecordPoints(runID int64, site string, metric schema.MetricTag, points []schema.TimeSeriesPoint) error {
	if hs.disabled() || len(points) == 0 {
		return nil
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (run_id, site, metric, point_time, point_value) VALUES (%s)`,
		quoteTableName(seriesPointsTable, hs.backend), strings.Join(placeholders(hs.backend, 5), ", "))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare point insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range points {
		var value any
		if schema.IsFinite(p.Value) {
			value = *p.Value
		}
		if _, err := stmt.Exec(runID, site, string(metric), p.Timestamp, value); err != nil {
			return fmt.Errorf("failed to insert series point: %w", err)
		}
	}
	return tx.Commit()
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, totalPoints int) error {
	if hs.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(queryRunsTable, hs.backend)
	ph := placeholders(hs.backend, 4)

	// First, get the start_time to calculate duration
	selectQuery := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, ph[0])
	startTime, err := hs.scanTime(hs.db.QueryRow(selectQuery, runID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_points = %s WHERE run_id = %s`,
		quotedTableName, ph[0], ph[1], ph[2], ph[3])
	if _, err := hs.db.Exec(updateQuery, formatTime(endTime, hs.backend), durationMs, totalPoints, runID); err != nil {
		return fmt.Errorf("failed to update query run: %w", err)
	}
	return nil
}

// scanTime reads a single time column, handling SQLite's text storage.
func (hs *HistoryStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if hs.backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return parseSQLiteTime(s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	runs := quoteTableName(queryRunsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT MAX(run_id) FROM %s", runs)).Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}
		var err error
		status.LastRunTime, err = hs.scanTime(hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs)))
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.OldestRunTime, err = hs.scanTime(hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_points), 0) FROM %s", runs)).Scan(&status.TotalPoints); err != nil {
			return status, fmt.Errorf("failed to get total points: %w", err)
		}
	}

	for _, table := range []string{queryRunsTable, seriesPointsTable} {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves every recorded run ordered by id.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.HistoryRunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, start_time, end_time, run_duration_ms, site, metric, source, total_points FROM %s ORDER BY run_id",
		quoteTableName(queryRunsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HistoryRunRecord
	for rows.Next() {
		var record schema.HistoryRunRecord

		switch hs.backend {
		case schema.SQLiteBackend:
			var startStr string
			var endStr *string
			if err := rows.Scan(&record.RunID, &startStr, &endStr, &record.RunDurationMs, &record.Site, &record.Metric, &record.Source, &record.TotalPoints); err != nil {
				return nil, fmt.Errorf("failed to scan query run: %w", err)
			}
			if record.StartTime, err = parseSQLiteTime(startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endStr != nil {
				end, err := parseSQLiteTime(*endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &end
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.Site, &record.Metric, &record.Source, &record.TotalPoints); err != nil {
				return nil, fmt.Errorf("failed to scan query run: %w", err)
			}
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query runs: %w", err)
	}
	return results, nil
}

// GetAllPoints retrieves every recorded series point ordered by run and time.
func (hs *HistoryStoreImpl) GetAllPoints() ([]schema.HistoryPointRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, site, metric, point_time, point_value FROM %s ORDER BY run_id, point_time",
		quoteTableName(seriesPointsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query series points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HistoryPointRecord
	for rows.Next() {
		var record schema.HistoryPointRecord
		var ts int64
		var value sql.NullFloat64
		if err := rows.Scan(&record.RunID, &record.Site, &record.Metric, &ts, &value); err != nil {
			return nil, fmt.Errorf("failed to scan series point: %w", err)
		}
		record.Timestamp = time.UnixMilli(ts).UTC()
		if value.Valid {
			record.Value = schema.Float(value.Float64)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series points: %w", err)
	}
	return results, nil
}
