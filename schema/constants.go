package schema

import "time"

// Custom string types for type safety.
type (
	// MetricTag names a measured quantity.
	MetricTag string

	// RecordType marks special records in the dataset.
	RecordType string

	// DataSource selects where metric records come from.
	DataSource string

	// OutputMode represents the format of the output.
	OutputMode string

	// PeriodMode selects the granularity of a percent change comparison.
	PeriodMode string

	// Currency is a display currency for revenue values.
	Currency string

	// DatabaseBackend represents the database backend for durable storage.
	DatabaseBackend string
)

// All metrics supported.
const (
	MedianCPUE MetricTag = "median_cpue" // default
	MedianRPUE MetricTag = "median_rpue"
	Catch      MetricTag = "catch"
)

// MetadataRecord marks records that describe the dataset rather than observations.
const MetadataRecord RecordType = "metadata"

// All data sources supported.
const (
	StaticSource DataSource = "static" // default
	APISource    DataSource = "api"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All period modes supported.
const (
	MonthlyPeriod PeriodMode = "monthly" // default
	YearlyPeriod  PeriodMode = "yearly"
)

// All currencies supported.
const (
	TZS Currency = "TZS" // default, values are stored in TZS
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// All durable backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis"
	NoneBackend       DatabaseBackend = "none"
)

// AllSites is the pseudo-site selecting the cross-site aggregate.
const AllSites = "all"

// Cache defaults.
const (
	QueryCacheTTL    = 5 * time.Minute
	BulkCacheTTL     = 30 * time.Minute
	DefaultCacheSize = 50
)

// AllMetrics returns a list of all supported metrics.
var AllMetrics = []MetricTag{MedianCPUE, MedianRPUE, Catch}

// ValidMetrics lists all valid metrics.
var ValidMetrics = map[MetricTag]struct{}{
	MedianCPUE: {},
	MedianRPUE: {},
	Catch:      {},
}

// ValidDataSources lists all valid data sources.
var ValidDataSources = map[DataSource]struct{}{
	StaticSource: {},
	APISource:    {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidPeriodModes lists all valid period modes.
var ValidPeriodModes = map[PeriodMode]struct{}{
	MonthlyPeriod: {},
	YearlyPeriod:  {},
}

// ValidCurrencies lists all valid currencies.
var ValidCurrencies = map[Currency]struct{}{
	TZS: {},
	USD: {},
	EUR: {},
}

// ValidDatabaseBackends lists all valid backends for the durable cache.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidHistoryBackends lists all valid backends for the history store.
// Redis has no relational schema, so it is excluded here.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// MetricUnit returns the display unit of a metric.
func MetricUnit(m MetricTag) string {
	switch m {
	case MedianCPUE:
		return "kg/fisher/day"
	case MedianRPUE:
		return "TZS/fisher/day"
	case Catch:
		return "kg"
	default:
		return ""
	}
}
