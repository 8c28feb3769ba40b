// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/worldfishcenter/landings/schema"
)

// MetricSource supplies the full set of metric records.
// This allows the data service to be tested without files or a network.
type MetricSource interface {
	// Records returns every metric record the source knows about.
	// Callers may freely modify the returned slice.
	Records(ctx context.Context) ([]schema.MetricRecord, error)

	// Kind identifies the source for cache keys and history rows.
	Kind() schema.DataSource

	// Supports returns ErrNotImplemented when the source cannot serve the metric.
	Supports(metric schema.MetricTag) error
}

// APIClient defines the remote calls needed from the landings API.
type APIClient interface {
	// Health checks that the remote service reports itself as ok.
	Health(ctx context.Context) error

	// FetchCPUE returns the monthly CPUE and catch rows for the given sites.
	FetchCPUE(ctx context.Context, sites []string) ([]schema.CPUERow, error)
}

// CacheManager defines the interface for managing durable stores.
// This allows the persistence layer to be mocked for testing.
type CacheManager interface {
	GetSnapshotStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for durable key/value snapshot storage.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking query runs and the series they produced.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, site string, metric schema.MetricTag, source schema.DataSource) (int64, error)

	// RecordPoints stores the series points produced by a run
	RecordPoints(runID int64, site string, metric schema.MetricTag, points []schema.TimeSeriesPoint) error

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalPoints int) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns retrieves every recorded run
	GetAllRuns() ([]schema.HistoryRunRecord, error)

	// GetAllPoints retrieves every recorded series point
	GetAllPoints() ([]schema.HistoryPointRecord, error)

	// Close closes the underlying connection
	Close() error
}
