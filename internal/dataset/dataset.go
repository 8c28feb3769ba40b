// Package dataset loads the static landing-site metric files into an immutable in-memory store.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/internal/logger"
	"github.com/worldfishcenter/landings/schema"
)

// File names written by the export scripts.
const (
	MonthlyMetricsFile = "monthly-metrics.json"
	CPUEFile           = "cpue.json"
	LandingSitesFile   = "landing-sites.json"
	SummaryStatsFile   = "summary-stats.json"
)

// Store is a read-only set of metric records.
type Store struct {
	dir     string
	records []schema.MetricRecord
	sites   []string
	summary []schema.SiteSummary
	dropped int
}

var _ contract.MetricSource = &Store{} // Compile-time check

// Load reads the dataset files in dir. At least one of monthly-metrics.json or
// cpue.json must exist; otherwise contract.ErrDatasetMissing is returned.
// Rows failing parse-time validation are logged and skipped.
func Load(dir string, log *zap.Logger) (*Store, error) {
	log = logger.OrNop(log).With(zap.String("dir", dir))

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a readable directory", contract.ErrDatasetMissing, dir)
	}

	s := &Store{dir: dir}

	var rawMetrics []rawMetricRecord
	hasMetrics, err := readJSONFile(filepath.Join(dir, MonthlyMetricsFile), &rawMetrics)
	if err != nil {
		return nil, err
	}
	var rows []schema.CPUERow
	hasCPUE, err := readJSONFile(filepath.Join(dir, CPUEFile), &rows)
	if err != nil {
		return nil, err
	}
	if !hasMetrics && !hasCPUE {
		return nil, fmt.Errorf("%w: neither %s nor %s found in %s", contract.ErrDatasetMissing, MonthlyMetricsFile, CPUEFile, dir)
	}

	seen := make(map[recordKey]struct{})
	for i, raw := range rawMetrics {
		rec, err := raw.toRecord()
		if err != nil {
			s.dropped++
			log.Debug("dropping metric record", zap.String("file", MonthlyMetricsFile), zap.Int("index", i), zap.Error(err))
			continue
		}
		seen[keyOf(rec)] = struct{}{}
		s.records = append(s.records, rec)
	}

	// CPUE rows only fill in tuples not already covered by monthly metrics.
	converted, dropped := ConvertCPUERows(rows, log)
	s.dropped += dropped
	for _, rec := range converted {
		if _, dup := seen[keyOf(rec)]; dup {
			continue
		}
		s.records = append(s.records, rec)
	}

	if s.dropped > 0 {
		log.Warn("dropped invalid dataset rows", zap.Int("dropped", s.dropped), zap.Int("kept", len(s.records)))
	}

	var sites []string
	hasSites, err := readJSONFile(filepath.Join(dir, LandingSitesFile), &sites)
	if err != nil {
		return nil, err
	}
	if hasSites {
		s.sites = sortedUnique(sites)
	} else {
		s.sites = sitesOf(s.records)
	}

	if _, err := readJSONFile(filepath.Join(dir, SummaryStatsFile), &s.summary); err != nil {
		return nil, err
	}

	log.Info("loaded dataset", zap.Int("records", len(s.records)), zap.Int("sites", len(s.sites)))
	return s, nil
}

// FromRecords builds a store around records already in memory.
func FromRecords(records []schema.MetricRecord) *Store {
	return &Store{
		records: slices.Clone(records),
		sites:   sitesOf(records),
	}
}

// Records returns a copy of every record.
func (s *Store) Records(_ context.Context) ([]schema.MetricRecord, error) {
	return slices.Clone(s.records), nil
}

// Kind implements contract.MetricSource.
func (s *Store) Kind() schema.DataSource {
	return schema.StaticSource
}

// Supports implements contract.MetricSource. The static dataset carries every metric.
func (s *Store) Supports(_ schema.MetricTag) error {
	return nil
}

// Sites returns the landing sites in the dataset, sorted.
func (s *Store) Sites() []string {
	return slices.Clone(s.sites)
}

// SummaryStats returns the exported per-site summary rows, if the file was present.
func (s *Store) SummaryStats() []schema.SiteSummary {
	return slices.Clone(s.summary)
}

// Len returns the number of loaded records.
func (s *Store) Len() int {
	return len(s.records)
}

// Dropped returns how many rows failed validation during load.
func (s *Store) Dropped() int {
	return s.dropped
}

// Dir returns the directory the store was loaded from.
func (s *Store) Dir() string {
	return s.dir
}

// Location returns the absolute dataset directory, or Dir when it cannot be resolved.
func (s *Store) Location() string {
	if abs, err := filepath.Abs(s.dir); err == nil {
		return abs
	}
	return s.dir
}

// readJSONFile decodes path into v. A missing file is reported as (false, nil).
func readJSONFile(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s must be a JSON array: %v", contract.ErrFormat, filepath.Base(path), err)
	}
	return true, nil
}

type recordKey struct {
	site   string
	date   int64
	metric schema.MetricTag
}

func keyOf(r schema.MetricRecord) recordKey {
	return recordKey{site: r.LandingSite, date: r.Date.UnixMilli(), metric: r.Metric}
}

func sitesOf(records []schema.MetricRecord) []string {
	var sites []string
	for _, r := range records {
		if r.IsMetadata() || r.LandingSite == "" {
			continue
		}
		sites = append(sites, r.LandingSite)
	}
	return sortedUnique(sites)
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	sort.Strings(out)
	return slices.Compact(out)
}
