package schema

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricRecordValidity(t *testing.T) {
	date := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record MetricRecord
		valid  bool
	}{
		{"valid", MetricRecord{Date: date, Value: Float(2.5), SampleCount: 3}, true},
		{"nil value", MetricRecord{Date: date, SampleCount: 3}, false},
		{"zero samples", MetricRecord{Date: date, Value: Float(2.5)}, false},
		{"negative samples", MetricRecord{Date: date, Value: Float(2.5), SampleCount: -1}, false},
		{"nan value", MetricRecord{Date: date, Value: Float(math.NaN()), SampleCount: 1}, false},
		{"zero date", MetricRecord{Value: Float(2.5), SampleCount: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.record.IsValid())
		})
	}

	assert.True(t, MetricRecord{RecordType: MetadataRecord}.IsMetadata())
	assert.False(t, MetricRecord{}.IsMetadata())
}

func TestTimeSeriesPointTime(t *testing.T) {
	date := time.Date(2022, time.July, 1, 0, 0, 0, 0, time.UTC)
	p := TimeSeriesPoint{Timestamp: date.UnixMilli()}
	assert.True(t, date.Equal(p.Time()))
	assert.Equal(t, time.UTC, p.Time().Location())
}

func TestLandingSites(t *testing.T) {
	assert.Len(t, LandingSites, 29)
	assert.True(t, slices.IsSorted(LandingSites), "allow-list must stay sorted for binary search")

	assert.True(t, IsValidSite("nungwi"))
	assert.True(t, IsValidSite("mvumoni_furaha"))
	assert.False(t, IsValidSite("atlantis"))
	assert.False(t, IsValidSite(AllSites))
	assert.False(t, IsValidSite(""))
}

func TestFilterValidSites(t *testing.T) {
	got := FilterValidSites([]string{"wete", "atlantis", "nungwi", "wete"})
	assert.Equal(t, []string{"wete", "nungwi"}, got)
	assert.Empty(t, FilterValidSites(nil))
}

func TestSiteInfo(t *testing.T) {
	assert.Equal(t, "Shumba mjini", SiteLabel("shumba_mjini"))
	assert.Equal(t, "Mvumoni furaha", SiteLabel("mvumoni_furaha"))
	assert.Equal(t, "Nungwi", SiteLabel("nungwi"))
	assert.Equal(t, "All sites", SiteLabel(AllSites))
	assert.Equal(t, "", SiteLabel(""))

	info := GetSiteInfo("chwaka")
	assert.Equal(t, "chwaka", info.ID)
	assert.Equal(t, "Chwaka", info.Label)
	assert.Equal(t, [2]float64{39.1977, -6.1659}, info.Bounds)
}

func TestMetricUnit(t *testing.T) {
	for _, m := range AllMetrics {
		assert.NotEmpty(t, MetricUnit(m), "metric %s should have a unit", m)
		_, ok := ValidMetrics[m]
		assert.True(t, ok)
	}
	assert.Empty(t, MetricUnit("bogus"))
}
