// Package parquet provides data structures and functions for exporting landing-site
// series and query history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/worldfishcenter/landings/schema"
)

// QueryRun represents a single recorded data-service query.
// This struct maps to the landings_query_runs database table.
type QueryRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the query began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the query completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// Site is the landing site or "all"
	Site string `parquet:"site,snappy,dict"`

	// Metric is the queried metric tag
	Metric string `parquet:"metric,snappy,dict"`

	// Source is static or api
	Source string `parquet:"source,snappy,dict"`

	// TotalPoints is the number of series points produced
	TotalPoints int32 `parquet:"total_points,snappy"`
}

// SeriesPoint represents one stored point of a recorded run.
// This struct maps to the landings_series_points database table.
type SeriesPoint struct {
	RunID     int64     `parquet:"run_id,snappy"`
	Site      string    `parquet:"site,snappy,dict"`
	Metric    string    `parquet:"metric,snappy,dict"`
	Timestamp time.Time `parquet:"timestamp,snappy"`
	Value     *float64  `parquet:"value,optional,snappy"` // null marks a gap
}

// SeriesRow is one point of a site series exported with --output parquet.
type SeriesRow struct {
	Site      string    `parquet:"site,snappy,dict"`
	Metric    string    `parquet:"metric,snappy,dict"`
	Timestamp time.Time `parquet:"timestamp,snappy"`
	Value     *float64  `parquet:"value,optional,snappy"`
	Selected  bool      `parquet:"selected"` // true for the selected series, false for per-site rows
}

// writeParquet writes rows to outputPath, inferring the schema from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteQueryRunsParquet writes a slice of QueryRun structs to a Parquet file.
func WriteQueryRunsParquet(data []QueryRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteSeriesPointsParquet writes a slice of SeriesPoint structs to a Parquet file.
func WriteSeriesPointsParquet(data []SeriesPoint, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteSeriesParquet writes a slice of SeriesRow structs to a Parquet file.
func WriteSeriesParquet(data []SeriesRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertHistoryRunRecords converts schema.HistoryRunRecord to QueryRun for Parquet export.
func ConvertHistoryRunRecords(records []schema.HistoryRunRecord) []QueryRun {
	result := make([]QueryRun, len(records))
	for i, record := range records {
		result[i] = QueryRun{
			RunID:         record.RunID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			Site:          record.Site,
			Metric:        record.Metric,
			Source:        record.Source,
			TotalPoints:   record.TotalPoints,
		}
	}
	return result
}

// ConvertHistoryPointRecords converts schema.HistoryPointRecord to SeriesPoint for Parquet export.
func ConvertHistoryPointRecords(records []schema.HistoryPointRecord) []SeriesPoint {
	result := make([]SeriesPoint, len(records))
	for i, record := range records {
		result[i] = SeriesPoint{
			RunID:     record.RunID,
			Site:      record.Site,
			Metric:    record.Metric,
			Timestamp: record.Timestamp,
			Value:     record.Value,
		}
	}
	return result
}

// ConvertSiteResult flattens the selected series and every per-site series into rows.
func ConvertSiteResult(result schema.SelectedSiteResult) []SeriesRow {
	rows := make([]SeriesRow, 0, len(result.SelectedData))
	for _, p := range result.SelectedData {
		rows = append(rows, SeriesRow{
			Site:      result.Site,
			Metric:    string(result.Metric),
			Timestamp: p.Time(),
			Value:     p.Value,
			Selected:  true,
		})
	}
	for _, s := range result.AllSitesData {
		for _, p := range s.Data {
			rows = append(rows, SeriesRow{
				Site:      s.Site,
				Metric:    string(result.Metric),
				Timestamp: p.Time(),
				Value:     p.Value,
			})
		}
	}
	return rows
}
