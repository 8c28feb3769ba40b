package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

func find(records []schema.MetricRecord, site string, metric schema.MetricTag, date string) *schema.MetricRecord {
	d, _ := time.Parse("2006-01-02", date)
	for i := range records {
		r := records[i]
		if r.LandingSite == site && r.Metric == metric && r.Date.Equal(d) {
			return &records[i]
		}
	}
	return nil
}

func TestLoadFullDataset(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "full"), zap.NewNop())
	require.NoError(t, err)

	records, err := s.Records(context.Background())
	require.NoError(t, err)

	// 6 kept from monthly metrics, 3 new tuples from cpue.json
	assert.Len(t, records, 9)
	assert.Equal(t, 2, s.Dropped())

	r := find(records, "kizimkazi", schema.MedianCPUE, "2023-02-01")
	require.NotNil(t, r)
	require.NotNil(t, r.Value)
	assert.InDelta(t, 3.5, *r.Value, 1e-9, "numeric strings are coerced")
	assert.Equal(t, 2, r.SampleCount)

	r = find(records, "kizimkazi", schema.MedianCPUE, "2023-03-01")
	require.NotNil(t, r)
	assert.Nil(t, r.Value)
	assert.False(t, r.IsValid())

	// monthly metrics win over cpue.json for the same tuple
	r = find(records, "kizimkazi", schema.MedianCPUE, "2023-01-01")
	require.NotNil(t, r)
	assert.InDelta(t, 2.0, *r.Value, 1e-9)

	r = find(records, "kizimkazi", schema.Catch, "2023-01-01")
	require.NotNil(t, r)
	assert.InDelta(t, 120.5, *r.Value, 1e-9)
	assert.Equal(t, 1, r.SampleCount)

	r = find(records, "nungwi", schema.Catch, "2023-01-01")
	require.NotNil(t, r)
	assert.Nil(t, r.Value)
	assert.Equal(t, 0, r.SampleCount)

	r = find(records, "matemwe", schema.MedianCPUE, "2023-01-01")
	require.NotNil(t, r, "RFC3339 dates are accepted")
	assert.Equal(t, time.UTC, r.Date.Location())

	assert.Equal(t, []string{"kizimkazi", "matemwe", "nungwi"}, s.Sites())

	summary := s.SummaryStats()
	require.Len(t, summary, 2)
	assert.Equal(t, "kizimkazi", summary[0].Site)
	assert.InDelta(t, 2.75, summary[0].AvgCPUE, 1e-9)
	assert.Equal(t, 3, summary[0].Count)

	assert.Equal(t, schema.StaticSource, s.Kind())
	assert.NoError(t, s.Supports(schema.MedianRPUE))
	assert.True(t, filepath.IsAbs(s.Location()))
	assert.Equal(t, "full", filepath.Base(s.Location()))
}

func TestLoadCPUEOnly(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "cpue-only"), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 1, s.Dropped())
	assert.Equal(t, []string{"jambiani"}, s.Sites(), "sites fall back to the records")
	assert.Empty(t, s.SummaryStats())

	records, _ := s.Records(context.Background())
	r := find(records, "jambiani", schema.MedianCPUE, "2023-06-01")
	require.NotNil(t, r, "year-month dates are accepted")
	assert.Nil(t, r.Value)
	assert.Equal(t, 0, r.SampleCount)
}

func TestLoadMissingDataset(t *testing.T) {
	_, err := Load(t.TempDir(), nil)
	assert.ErrorIs(t, err, contract.ErrDatasetMissing)

	_, err = Load(filepath.Join(t.TempDir(), "nope"), nil)
	assert.ErrorIs(t, err, contract.ErrDatasetMissing)
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "malformed"), nil)
	assert.ErrorIs(t, err, contract.ErrFormat)
}

func TestRecordsReturnsCopy(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "cpue-only"), nil)
	require.NoError(t, err)

	first, _ := s.Records(context.Background())
	first[0].LandingSite = "mutated"

	second, _ := s.Records(context.Background())
	assert.Equal(t, "jambiani", second[0].LandingSite)
}

func TestLoadSkipsUnreadableSummary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CPUEFile), []byte(`[]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SummaryStatsFile), []byte(`"oops"`), 0o600))

	_, err := Load(dir, nil)
	assert.ErrorIs(t, err, contract.ErrFormat)
}

func TestFromRecords(t *testing.T) {
	records := []schema.MetricRecord{
		{LandingSite: "nungwi", Metric: schema.Catch, Date: time.Now(), Value: schema.Float(1), SampleCount: 1},
		{LandingSite: "bwejuu", Metric: schema.Catch, Date: time.Now(), Value: schema.Float(2), SampleCount: 1},
		{RecordType: schema.MetadataRecord},
	}
	s := FromRecords(records)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"bwejuu", "nungwi"}, s.Sites())
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2023-01-01", "2023-01-01", false},
		{"2023-01-15T10:30:00.000Z", "2023-01-15", false},
		{"2023-01-15T23:30:00-02:00", "2023-01-16", false},
		{"2023-07", "2023-07-01", false},
		{"", "", true},
		{"01/02/2023", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, contract.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestParseNumber(t *testing.T) {
	assert.Nil(t, parseNumber(nil))
	assert.Nil(t, parseNumber([]byte("null")))
	assert.Nil(t, parseNumber([]byte(`"abc"`)))
	assert.Nil(t, parseNumber([]byte(`true`)))
	assert.InDelta(t, 4.5, *parseNumber([]byte(`4.5`)), 1e-9)
	assert.InDelta(t, 7.0, *parseNumber([]byte(`" 7 "`)), 1e-9)
}

func TestConvertCPUERows(t *testing.T) {
	rows := []schema.CPUERow{
		{LandingSite: "nungwi", MonthDate: "2023-01-01", CPUE: schema.Float(2), Catch: nil},
		{LandingSite: "nungwi", MonthDate: "bad"},
	}
	records, dropped := ConvertCPUERows(rows, nil)
	require.Len(t, records, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, schema.MedianCPUE, records[0].Metric)
	assert.Equal(t, 1, records[0].SampleCount)
	assert.Equal(t, schema.Catch, records[1].Metric)
	assert.Equal(t, 0, records[1].SampleCount)

	// converted values do not alias the input rows
	*rows[0].CPUE = 99
	assert.InDelta(t, 2.0, *records[0].Value, 1e-9)
}

func TestParseSampleCount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{`4`, 4, false},
		{`"12"`, 12, false},
		{`null`, 0, false},
		{`"abc"`, 0, false},
		{`0`, 0, false},
		{`-3`, 0, false},
		{`0.5`, 0, true},
		{`2.5`, 0, true},
		{`1e20`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseSampleCount([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, contract.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToRecordRejectsBadSampleCount(t *testing.T) {
	raw := rawMetricRecord{
		LandingSite: "nungwi",
		Date:        "2023-01-01",
		Metric:      "median_cpue",
		Value:       []byte(`2.5`),
		N:           []byte(`0.5`),
	}
	_, err := raw.toRecord()
	assert.ErrorIs(t, err, contract.ErrValidation)

	raw.N = []byte(`3`)
	rec, err := raw.toRecord()
	require.NoError(t, err)
	assert.Equal(t, 3, rec.SampleCount)
	assert.True(t, rec.IsValid())
}
