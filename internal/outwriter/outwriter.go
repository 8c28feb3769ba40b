// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSeries prints a site data query using the configured output format.
func (ow *OutWriter) WriteSeries(result schema.SelectedSiteResult, cfg *contract.Config, duration time.Duration) error {
	return PrintSeriesResult(result, cfg, duration)
}

// WriteSeasonal prints a month-of-year pattern using the configured output format.
func (ow *OutWriter) WriteSeasonal(result schema.SeasonalResult, cfg *contract.Config, duration time.Duration) error {
	return PrintSeasonalResult(result, cfg, duration)
}

// WriteYearly prints a yearly rollup using the configured output format.
func (ow *OutWriter) WriteYearly(result schema.YearlyResult, cfg *contract.Config, duration time.Duration) error {
	return PrintYearlyResult(result, cfg, duration)
}

// WriteChange prints a percent change using the configured output format.
func (ow *OutWriter) WriteChange(result schema.ChangeResult, cfg *contract.Config, duration time.Duration) error {
	return PrintChangeResult(result, cfg, duration)
}

// WriteSites prints the landing site list using the configured output format.
func (ow *OutWriter) WriteSites(sites []schema.SiteInfo, cfg *contract.Config) error {
	return PrintSites(sites, cfg)
}

// WriteSummary prints per-site averages using the configured output format.
func (ow *OutWriter) WriteSummary(summaries []schema.SiteSummary, cfg *contract.Config, duration time.Duration) error {
	return PrintSummaries(summaries, cfg, duration)
}
