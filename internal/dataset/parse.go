package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

// dateLayouts are tried in order when parsing record dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
}

// rawMetricRecord is a monthly-metrics.json row before validation.
// Value and n are kept raw because exports mix numbers, strings and nulls.
type rawMetricRecord struct {
	LandingSite string          `json:"landing_site"`
	Date        string          `json:"date"`
	Metric      string          `json:"metric"`
	Value       json.RawMessage `json:"value"`
	N           json.RawMessage `json:"n"`
	Type        string          `json:"type"`
}

// toRecord validates the row. A bad date, an unknown metric or a sample count
// that is not a whole number in range rejects it; a malformed value becomes
// absent and a non-numeric n becomes zero.
func (r rawMetricRecord) toRecord() (schema.MetricRecord, error) {
	rec := schema.MetricRecord{
		LandingSite: strings.TrimSpace(r.LandingSite),
		RecordType:  schema.RecordType(strings.TrimSpace(r.Type)),
	}

	if rec.IsMetadata() {
		// Metadata rows are kept for completeness but never validated further.
		rec.Metric = schema.MetricTag(r.Metric)
		rec.Date, _ = ParseDate(r.Date)
		return rec, nil
	}

	date, err := ParseDate(r.Date)
	if err != nil {
		return rec, err
	}
	rec.Date = date

	rec.Metric = schema.MetricTag(strings.TrimSpace(r.Metric))
	if _, ok := schema.ValidMetrics[rec.Metric]; !ok {
		return rec, fmt.Errorf("%w: unknown metric %q", contract.ErrValidation, r.Metric)
	}

	rec.Value = parseNumber(r.Value)
	n, err := parseSampleCount(r.N)
	if err != nil {
		return rec, err
	}
	rec.SampleCount = n
	return rec, nil
}

// maxSampleCount bounds n so it fits an int on every platform.
const maxSampleCount = math.MaxInt32

// parseSampleCount reads the n column. Absent, non-numeric and non-positive
// counts are zero.
func parseSampleCount(raw json.RawMessage) (int, error) {
	n := parseNumber(raw)
	if n == nil || *n <= 0 {
		return 0, nil
	}
	if *n != math.Trunc(*n) {
		return 0, fmt.Errorf("%w: fractional sample count %v", contract.ErrValidation, *n)
	}
	if *n > maxSampleCount {
		return 0, fmt.Errorf("%w: sample count %v out of range", contract.ErrValidation, *n)
	}
	return int(*n), nil
}

// ParseDate parses a dataset date into UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", contract.ErrValidation)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable date %q", contract.ErrValidation, s)
}

// parseNumber accepts a JSON number or a numeric string; anything else is absent.
func parseNumber(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}
	return nil
}

// ConvertCPUERows turns API-shaped rows into median_cpue and catch records.
// A present value counts as one sample; a null value counts as none.
// Rows with an unparsable month_date are dropped and counted.
func ConvertCPUERows(rows []schema.CPUERow, log *zap.Logger) ([]schema.MetricRecord, int) {
	records := make([]schema.MetricRecord, 0, len(rows)*2)
	dropped := 0
	for i, row := range rows {
		date, err := ParseDate(row.MonthDate)
		if err != nil {
			dropped++
			if log != nil {
				log.Debug("dropping cpue row", zap.Int("index", i), zap.String("site", row.LandingSite), zap.Error(err))
			}
			continue
		}
		site := strings.TrimSpace(row.LandingSite)
		records = append(records,
			cpueRecord(site, date, schema.MedianCPUE, row.CPUE),
			cpueRecord(site, date, schema.Catch, row.Catch),
		)
	}
	return records, dropped
}

func cpueRecord(site string, date time.Time, metric schema.MetricTag, value *float64) schema.MetricRecord {
	rec := schema.MetricRecord{
		LandingSite: site,
		Date:        date,
		Metric:      metric,
	}
	if value != nil {
		v := *value
		rec.Value = &v
		rec.SampleCount = 1
	}
	return rec
}
