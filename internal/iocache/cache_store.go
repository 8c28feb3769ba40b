package iocache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

// snapshotDialect holds the statements that differ between SQL backends.
type snapshotDialect struct {
	create string // takes the quoted table name
	upsert string // takes the quoted table name
	get    string // takes the quoted table name
}

var snapshotDialects = map[schema.DatabaseBackend]snapshotDialect{
	schema.SQLiteBackend: {
		create: `CREATE TABLE IF NOT EXISTS %s (
			snapshot_key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			payload_version INTEGER NOT NULL,
			stored_at INTEGER NOT NULL
		)`,
		upsert: `INSERT OR REPLACE INTO %s (snapshot_key, payload, payload_version, stored_at) VALUES (?, ?, ?, ?)`,
		get:    `SELECT payload, payload_version, stored_at FROM %s WHERE snapshot_key = ?`,
	},
	schema.MySQLBackend: {
		create: `CREATE TABLE IF NOT EXISTS %s (
			snapshot_key VARCHAR(512) PRIMARY KEY,
			payload LONGBLOB NOT NULL,
			payload_version INT NOT NULL,
			stored_at BIGINT NOT NULL
		)`,
		upsert: `INSERT INTO %s (snapshot_key, payload, payload_version, stored_at) VALUES (?, ?, ?, ?) AS incoming
			ON DUPLICATE KEY UPDATE payload = incoming.payload, payload_version = incoming.payload_version, stored_at = incoming.stored_at`,
		get: `SELECT payload, payload_version, stored_at FROM %s WHERE snapshot_key = ?`,
	},
	schema.PostgreSQLBackend: {
		create: `CREATE TABLE IF NOT EXISTS %s (
			snapshot_key TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			payload_version INTEGER NOT NULL,
			stored_at BIGINT NOT NULL
		)`,
		upsert: `INSERT INTO %s (snapshot_key, payload, payload_version, stored_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (snapshot_key) DO UPDATE SET payload = EXCLUDED.payload, payload_version = EXCLUDED.payload_version, stored_at = EXCLUDED.stored_at`,
		get: `SELECT payload, payload_version, stored_at FROM %s WHERE snapshot_key = $1`,
	},
}

// SQLSnapshotStore keeps dataset snapshots in one table of a SQL database.
// A store without a database (backend none) misses on every read and drops every write.
type SQLSnapshotStore struct {
	db      *sql.DB
	table   string
	backend schema.DatabaseBackend
	connStr string
	dialect snapshotDialect
}

var _ contract.CacheStore = &SQLSnapshotStore{} // Compile-time check

// NewCacheStore opens the snapshot store for backend. Redis is delegated to NewRedisStore
// with table used as the key prefix.
func NewCacheStore(table string, backend schema.DatabaseBackend, connStr string) (contract.CacheStore, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	switch backend {
	case schema.NoneBackend:
		return &SQLSnapshotStore{table: table, backend: backend}, nil
	case schema.RedisBackend:
		return NewRedisStore(connStr, table)
	}

	dialect, ok := snapshotDialects[backend]
	if !ok {
		return nil, fmt.Errorf("unsupported cache backend: %s. Must be sqlite, mysql, postgresql, redis, or none", backend)
	}

	db, err := openSQL(backend, connStr, GetDBFilePath())
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(fmt.Sprintf(dialect.create, quoteTableName(table, backend))); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}

	return &SQLSnapshotStore{
		db:      db,
		table:   table,
		backend: backend,
		connStr: connStr,
		dialect: dialect,
	}, nil
}

// Get returns the payload, its version and the unix second it was stored at.
// A missing key returns sql.ErrNoRows.
func (s *SQLSnapshotStore) Get(key string) ([]byte, int, int64, error) {
	if s.db == nil {
		return nil, 0, 0, sql.ErrNoRows
	}

	var (
		payload  []byte
		version  int
		storedAt int64
	)
	query := fmt.Sprintf(s.dialect.get, quoteTableName(s.table, s.backend))
	if err := s.db.QueryRow(query, key).Scan(&payload, &version, &storedAt); err != nil {
		return nil, 0, 0, err
	}
	return payload, version, storedAt, nil
}

// Set stores payload under key, replacing any earlier snapshot.
func (s *SQLSnapshotStore) Set(key string, payload []byte, version int, storedAt int64) error {
	if s.db == nil {
		return nil
	}
	query := fmt.Sprintf(s.dialect.upsert, quoteTableName(s.table, s.backend))
	if _, err := s.db.Exec(query, key, payload, version, storedAt); err != nil {
		return fmt.Errorf("failed to store snapshot %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying DB connection.
func (s *SQLSnapshotStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetStatus reports how many snapshots are stored, when and how much space they use.
func (s *SQLSnapshotStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}
	if s.db == nil {
		return status, nil
	}

	var newest, oldest sql.NullInt64
	query := fmt.Sprintf("SELECT COUNT(*), MAX(stored_at), MIN(stored_at) FROM %s", quoteTableName(s.table, s.backend))
	if err := s.db.QueryRow(query).Scan(&status.TotalEntries, &newest, &oldest); err != nil {
		return status, fmt.Errorf("failed to read snapshot statistics: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}
	status.LastEntryTime = time.Unix(newest.Int64, 0)
	status.OldestEntryTime = time.Unix(oldest.Int64, 0)
	status.TableSizeBytes = s.tableSize(status.TotalEntries)
	return status, nil
}

// tableSize asks the database for the table's size. When it cannot tell,
// each snapshot is counted as one kilobyte.
func (s *SQLSnapshotStore) tableSize(entries int) int64 {
	var (
		size int64
		err  error
	)
	switch s.backend {
	case schema.SQLiteBackend:
		err = s.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&size)
	case schema.MySQLBackend:
		dsn, parseErr := mysql.ParseDSN(s.connStr)
		if parseErr != nil || dsn.DBName == "" {
			return int64(entries) * 1024
		}
		err = s.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?",
			dsn.DBName, s.table).Scan(&size)
	case schema.PostgreSQLBackend:
		err = s.db.QueryRow("SELECT pg_total_relation_size($1)", s.table).Scan(&size)
	}
	if err != nil || size == 0 {
		return int64(entries) * 1024
	}
	return size
}
