package core

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldfishcenter/landings/schema"
)

func pt(t time.Time, v *float64) schema.TimeSeriesPoint {
	return schema.TimeSeriesPoint{Timestamp: t.UnixMilli(), Value: v}
}

func TestMonthlyMedianBuckets(t *testing.T) {
	series := []schema.TimeSeriesPoint{
		pt(month(2021, 1), schema.Float(1)),
		pt(month(2022, 1), schema.Float(3)),
		pt(month(2023, 1), schema.Float(2)),
		pt(month(2022, 3), schema.Float(4)),
		pt(month(2023, 3), schema.Float(5)),
		pt(month(2023, 6), nil),
		pt(month(2023, 12), schema.Float(1.006)),
	}

	got := MonthlyMedian(series)
	require.Len(t, got, 12)
	for i, m := range got {
		assert.Equal(t, i+1, m.Month)
		assert.Equal(t, schema.MonthLabel(i+1), m.Label)
	}
	assert.InDelta(t, 2.0, got[0].Value, 1e-9, "odd count takes the middle")
	assert.InDelta(t, 4.5, got[2].Value, 1e-9, "even count averages the middle two")
	assert.Equal(t, 0.0, got[5].Value, "nil values are ignored")
	assert.Equal(t, 0.0, got[1].Value, "empty buckets are zero")
	assert.InDelta(t, 1.01, got[11].Value, 1e-9, "rounded to two decimals")
}

func TestMonthlyMedianEmpty(t *testing.T) {
	got := MonthlyMedian(nil)
	for _, m := range got {
		assert.Equal(t, 0.0, m.Value)
	}
	assert.Equal(t, "Jan", got[0].Label)
	assert.Equal(t, "Dec", got[11].Label)
}

func TestYearlyRollup(t *testing.T) {
	series := []schema.TimeSeriesPoint{
		pt(month(2023, 5), schema.Float(4)),
		pt(month(2022, 1), schema.Float(1)),
		pt(month(2022, 7), schema.Float(2)),
		pt(month(2023, 1), nil),
		pt(month(2021, 1), nil),
	}

	got := YearlyRollup(series)
	require.Len(t, got, 3)
	assert.Equal(t, month(2021, 1).UnixMilli(), got[0].Timestamp)
	assert.Nil(t, got[0].Value)
	assert.InDelta(t, 1.5, *got[1].Value, 1e-9)
	assert.InDelta(t, 4.0, *got[2].Value, 1e-9)
}

func TestYearlyRollupPermutationInvariant(t *testing.T) {
	var series []schema.TimeSeriesPoint
	for y := 2018; y < 2024; y++ {
		for m := time.January; m <= time.December; m++ {
			series = append(series, pt(month(y, m), schema.Float(0.1*float64(m)+float64(y%7)/3)))
		}
	}
	want := YearlyRollup(series)

	rng := rand.New(rand.NewSource(42))
	for range 5 {
		rng.Shuffle(len(series), func(i, j int) { series[i], series[j] = series[j], series[i] })
		got := YearlyRollup(series)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].Timestamp, got[i].Timestamp)
			assert.Equal(t, *want[i].Value, *got[i].Value, "bit-identical regardless of order")
		}
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name   string
		series []schema.TimeSeriesPoint
		mode   schema.PeriodMode
		opts   []ChangeOption
		want   *schema.PercentChange
	}{
		{
			name:   "rise",
			series: []schema.TimeSeriesPoint{pt(month(2023, 1), schema.Float(10)), pt(month(2023, 2), schema.Float(15))},
			mode:   schema.MonthlyPeriod,
			want:   &schema.PercentChange{Change: 50, Display: "50.0", CurrentPeriod: "Feb 2023", PreviousPeriod: "Jan 2023"},
		},
		{
			name:   "fall unsorted input",
			series: []schema.TimeSeriesPoint{pt(month(2023, 2), schema.Float(5)), pt(month(2023, 1), schema.Float(10))},
			mode:   schema.MonthlyPeriod,
			want:   &schema.PercentChange{Change: -50, Display: "-50.0", CurrentPeriod: "Feb 2023", PreviousPeriod: "Jan 2023"},
		},
		{
			name:   "rounded to one decimal",
			series: []schema.TimeSeriesPoint{pt(month(2022, 1), schema.Float(3)), pt(month(2023, 1), schema.Float(4))},
			mode:   schema.YearlyPeriod,
			want:   &schema.PercentChange{Change: 33.3, Display: "33.3", CurrentPeriod: "2023", PreviousPeriod: "2022"},
		},
		{
			name:   "single point",
			series: []schema.TimeSeriesPoint{pt(month(2023, 1), schema.Float(10))},
			mode:   schema.MonthlyPeriod,
		},
		{
			name:   "previous zero",
			series: []schema.TimeSeriesPoint{pt(month(2023, 1), schema.Float(0)), pt(month(2023, 2), schema.Float(15))},
			mode:   schema.MonthlyPeriod,
		},
		{
			name: "trailing gap",
			series: []schema.TimeSeriesPoint{
				pt(month(2023, 1), schema.Float(10)), pt(month(2023, 2), schema.Float(15)), pt(month(2023, 3), nil),
			},
			mode: schema.MonthlyPeriod,
		},
		{
			name: "trailing gap skipped",
			series: []schema.TimeSeriesPoint{
				pt(month(2023, 1), schema.Float(10)), pt(month(2023, 2), schema.Float(15)), pt(month(2023, 3), nil),
			},
			mode: schema.MonthlyPeriod,
			opts: []ChangeOption{WithSkipGaps()},
			want: &schema.PercentChange{Change: 50, Display: "50.0", CurrentPeriod: "Feb 2023", PreviousPeriod: "Jan 2023"},
		},
		{
			name:   "skip gaps with one value",
			series: []schema.TimeSeriesPoint{pt(month(2023, 1), nil), pt(month(2023, 2), schema.Float(15))},
			mode:   schema.MonthlyPeriod,
			opts:   []ChangeOption{WithSkipGaps()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentChange(tt.series, tt.mode, tt.opts...)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestPercentChangeDoesNotReorderInput(t *testing.T) {
	series := []schema.TimeSeriesPoint{pt(month(2023, 2), schema.Float(5)), pt(month(2023, 1), schema.Float(10))}
	_ = PercentChange(series, schema.MonthlyPeriod)
	assert.Equal(t, month(2023, 2).UnixMilli(), series[0].Timestamp)
}

func TestConvertSeries(t *testing.T) {
	series := []schema.TimeSeriesPoint{pt(month(2023, 1), schema.Float(10000)), pt(month(2023, 2), nil)}
	got := ConvertSeries(series, 0.5)
	require.Len(t, got, 2)
	assert.InDelta(t, 5000.0, *got[0].Value, 1e-9)
	assert.Nil(t, got[1].Value)
	assert.InDelta(t, 10000.0, *series[0].Value, 1e-9, "input untouched")
}

func TestConverter(t *testing.T) {
	c := NewConverter(map[schema.Currency]float64{schema.USD: 0.0004, schema.TZS: 3})

	rate, err := c.Rate(schema.TZS)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate, "TZS is the base currency")

	rate, err = c.Rate("")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	_, err = c.Rate(schema.EUR)
	assert.Error(t, err)

	got, err := c.Convert([]schema.TimeSeriesPoint{pt(month(2023, 1), schema.Float(10000))}, schema.USD)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, *got[0].Value, 1e-9)
}

func TestPeriodLabel(t *testing.T) {
	ts := time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Sep 2023", PeriodLabel(ts, schema.MonthlyPeriod))
	assert.Equal(t, "2023", PeriodLabel(ts, schema.YearlyPeriod))
}
