package schema

import "time"

// HistoryRunRecord represents a row from the landings_query_runs table.
type HistoryRunRecord struct {
	RunID         int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	Site          string
	Metric        string
	Source        string
	TotalPoints   int32
}

// HistoryPointRecord represents a row from the landings_series_points table.
type HistoryPointRecord struct {
	RunID     int64
	Site      string
	Metric    string
	Timestamp time.Time
	Value     *float64
}
