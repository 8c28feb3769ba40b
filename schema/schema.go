// Package schema has models, enums and shared helpers for all parts of landings.
package schema

import "time"

// MetricRecord is one observation of a metric for a landing site in a given month.
type MetricRecord struct {
	LandingSite string     `json:"landing_site"`
	Date        time.Time  `json:"date"`
	Metric      MetricTag  `json:"metric"`
	Value       *float64   `json:"value"` // nil means no observation
	SampleCount int        `json:"n"`     // number of underlying observations
	RecordType  RecordType `json:"type,omitempty"`
}

// IsMetadata reports whether the record is a metadata row excluded from all computations.
func (r MetricRecord) IsMetadata() bool {
	return r.RecordType == MetadataRecord
}

// IsValid reports whether the record may contribute to a mean or median.
// A valid record has a set date, a finite value and at least one sample.
func (r MetricRecord) IsValid() bool {
	return !r.Date.IsZero() && IsFinite(r.Value) && r.SampleCount > 0
}

// TimeSeriesPoint is a single point of a chartable series.
// Timestamp is in epoch milliseconds (UTC). A nil Value is a gap marker.
type TimeSeriesPoint struct {
	Timestamp int64    `json:"timestamp"`
	Value     *float64 `json:"value"`
}

// Time returns the point's timestamp as a UTC time.
func (p TimeSeriesPoint) Time() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

// SiteSeries is the series of a single landing site.
type SiteSeries struct {
	Site string            `json:"site"`
	Data []TimeSeriesPoint `json:"data"`
}

// SelectedSiteResult is the result of a site data query.
type SelectedSiteResult struct {
	Site         string            `json:"site"`
	Metric       MetricTag         `json:"metric"`
	SelectedData []TimeSeriesPoint `json:"selectedData"`
	AllSitesData []SiteSeries      `json:"allSitesData"`
}

// MonthlyValue is one month-of-year bucket of a seasonal pattern.
type MonthlyValue struct {
	Month int     `json:"month"` // 1..12
	Label string  `json:"label"` // Jan..Dec
	Value float64 `json:"value"`
}

// PercentChange compares the two most recent periods of a series.
type PercentChange struct {
	Change         float64 `json:"value"`  // rounded to one decimal
	Display        string  `json:"change"` // one decimal place, e.g. "50.0"
	CurrentPeriod  string  `json:"currentPeriod"`
	PreviousPeriod string  `json:"previousPeriod"`
}

// SiteInfo describes a landing site for display.
type SiteInfo struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Bounds [2]float64 `json:"bounds"` // longitude, latitude
}

// SiteSummary is the per-site average of CPUE and catch.
type SiteSummary struct {
	Site     string  `json:"_id"`
	AvgCPUE  float64 `json:"avgCpue"`
	AvgCatch float64 `json:"avgCatch"`
	Count    int     `json:"count"`
}

// CPUERow is a single row returned by the remote /cpue endpoint and by the cpue.json export.
type CPUERow struct {
	ID          string   `json:"_id,omitempty"`
	LandingSite string   `json:"landing_site"`
	MonthDate   string   `json:"month_date"`
	CPUE        *float64 `json:"cpue"`
	Catch       *float64 `json:"catch"`
}

// HealthResponse is the body returned by the remote /health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SeasonalResult is the month-of-year median pattern of a site's series.
type SeasonalResult struct {
	Site   string           `json:"site"`
	Metric MetricTag        `json:"metric"`
	Months [12]MonthlyValue `json:"months"`
}

// YearlyResult is the per-year mean of a site's series.
type YearlyResult struct {
	Site   string            `json:"site"`
	Metric MetricTag         `json:"metric"`
	Points []TimeSeriesPoint `json:"points"`
}

// ChangeResult is the percent change between the two latest periods of a site's series.
// Change is nil when no comparison is possible.
type ChangeResult struct {
	Site   string         `json:"site"`
	Metric MetricTag      `json:"metric"`
	Period PeriodMode     `json:"period"`
	Change *PercentChange `json:"change"`
}
