package core

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/worldfishcenter/landings/schema"
)

// MonthlyMedian buckets a series by month of year, ignoring the year, and
// returns the median of each bucket rounded to 2 decimals. Empty buckets are 0.
func MonthlyMedian(series []schema.TimeSeriesPoint) [12]schema.MonthlyValue {
	var buckets [12][]float64
	for _, p := range series {
		if !schema.IsFinite(p.Value) {
			continue
		}
		m := p.Time().Month()
		buckets[m-1] = append(buckets[m-1], *p.Value)
	}

	var out [12]schema.MonthlyValue
	for i := range out {
		out[i] = schema.MonthlyValue{
			Month: i + 1,
			Label: schema.MonthLabel(i + 1),
		}
		if len(buckets[i]) > 0 {
			out[i].Value = schema.Round2(median(buckets[i]))
		}
	}
	return out
}

// median sorts values in place.
func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// YearlyRollup averages a series per calendar year (UTC). Each point is
// stamped at Jan 1 00:00 UTC; years with no values carry a nil value.
func YearlyRollup(series []schema.TimeSeriesPoint) []schema.TimeSeriesPoint {
	years := make(map[int][]float64)
	for _, p := range series {
		y := p.Time().Year()
		if _, ok := years[y]; !ok {
			years[y] = nil
		}
		if schema.IsFinite(p.Value) {
			years[y] = append(years[y], *p.Value)
		}
	}

	keys := make([]int, 0, len(years))
	for y := range years {
		keys = append(keys, y)
	}
	slices.Sort(keys)

	out := make([]schema.TimeSeriesPoint, 0, len(keys))
	for _, y := range keys {
		p := schema.TimeSeriesPoint{
			Timestamp: time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
		}
		if values := years[y]; len(values) > 0 {
			// Summing in sorted order makes the mean independent of input order.
			sort.Float64s(values)
			var sum float64
			for _, v := range values {
				sum += v
			}
			p.Value = schema.Float(sum / float64(len(values)))
		}
		out = append(out, p)
	}
	return out
}

// ChangeOption configures PercentChange.
type ChangeOption func(*changeOptions)

type changeOptions struct {
	skipGaps bool
}

// WithSkipGaps compares the last two non-nil points instead of the last two points.
func WithSkipGaps() ChangeOption {
	return func(o *changeOptions) { o.skipGaps = true }
}

// PercentChange compares the latest point of a series with the one before it.
// It returns nil when fewer than two points exist, when either value is
// missing, or when the previous value is zero.
func PercentChange(series []schema.TimeSeriesPoint, mode schema.PeriodMode, opts ...ChangeOption) *schema.PercentChange {
	var o changeOptions
	for _, opt := range opts {
		opt(&o)
	}

	points := slices.Clone(series)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
	if o.skipGaps {
		points = slices.DeleteFunc(points, func(p schema.TimeSeriesPoint) bool {
			return !schema.IsFinite(p.Value)
		})
	}
	if len(points) < 2 {
		return nil
	}

	prev, latest := points[len(points)-2], points[len(points)-1]
	if !schema.IsFinite(prev.Value) || !schema.IsFinite(latest.Value) || *prev.Value == 0 {
		return nil
	}

	change := schema.RoundTo((*latest.Value-*prev.Value) / *prev.Value * 100, 1)
	return &schema.PercentChange{
		Change:         change,
		Display:        strconv.FormatFloat(change, 'f', 1, 64),
		CurrentPeriod:  PeriodLabel(latest.Time(), mode),
		PreviousPeriod: PeriodLabel(prev.Time(), mode),
	}
}

// PeriodLabel renders a period as "Jan 2023" (monthly) or "2023" (yearly).
func PeriodLabel(t time.Time, mode schema.PeriodMode) string {
	if mode == schema.YearlyPeriod {
		return strconv.Itoa(t.Year())
	}
	return t.Format("Jan 2006")
}

// ConvertSeries multiplies every present value by rate. The input is not modified.
func ConvertSeries(series []schema.TimeSeriesPoint, rate float64) []schema.TimeSeriesPoint {
	out := make([]schema.TimeSeriesPoint, len(series))
	for i, p := range series {
		out[i] = schema.TimeSeriesPoint{Timestamp: p.Timestamp}
		if p.Value != nil {
			out[i].Value = schema.Float(*p.Value * rate)
		}
	}
	return out
}

// Converter converts TZS amounts into display currencies.
type Converter struct {
	rates map[schema.Currency]float64
}

// NewConverter creates a converter. TZS always converts at 1.
func NewConverter(rates map[schema.Currency]float64) *Converter {
	r := make(map[schema.Currency]float64, len(rates)+1)
	for k, v := range rates {
		r[k] = v
	}
	r[schema.TZS] = 1
	return &Converter{rates: r}
}

// Rate returns the multiplier from TZS to c.
func (c *Converter) Rate(cur schema.Currency) (float64, error) {
	if cur == "" {
		return 1, nil
	}
	rate, ok := c.rates[cur]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("no exchange rate for currency %q", cur)
	}
	return rate, nil
}

// Convert returns series expressed in cur.
func (c *Converter) Convert(series []schema.TimeSeriesPoint, cur schema.Currency) ([]schema.TimeSeriesPoint, error) {
	rate, err := c.Rate(cur)
	if err != nil {
		return nil, err
	}
	return ConvertSeries(series, rate), nil
}
