package core

import (
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/worldfishcenter/landings/schema"
)

// GetSeries extracts the time series of one metric at one landing site.
// Invalid records keep their slot with a nil value. Records without a usable
// date are dropped. The result is sorted by timestamp; ties keep input order.
func GetSeries(records []schema.MetricRecord, site string, metric schema.MetricTag, log *zap.Logger) []schema.TimeSeriesPoint {
	points := make([]schema.TimeSeriesPoint, 0)
	for _, r := range records {
		if r.IsMetadata() || r.Metric != metric || r.LandingSite != site {
			continue
		}
		if r.Date.IsZero() {
			if log != nil {
				log.Debug("skipping record without date", zap.String("site", site), zap.String("metric", string(metric)))
			}
			continue
		}
		p := schema.TimeSeriesPoint{Timestamp: r.Date.UnixMilli()}
		if r.IsValid() {
			v := *r.Value
			p.Value = &v
		}
		points = append(points, p)
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
	return points
}

// AggregateAll averages one metric across every site, one point per distinct
// timestamp. A timestamp with no valid contribution yields a nil value so the
// time axis stays contiguous.
func AggregateAll(records []schema.MetricRecord, metric schema.MetricTag) []schema.TimeSeriesPoint {
	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[int64]*bucket)
	for _, r := range records {
		if r.IsMetadata() || r.Metric != metric || r.Date.IsZero() {
			continue
		}
		ts := r.Date.UnixMilli()
		b, ok := buckets[ts]
		if !ok {
			b = &bucket{}
			buckets[ts] = b
		}
		if r.IsValid() {
			b.sum += *r.Value
			b.count++
		}
	}

	points := make([]schema.TimeSeriesPoint, 0, len(buckets))
	for ts, b := range buckets {
		p := schema.TimeSeriesPoint{Timestamp: ts}
		if b.count > 0 {
			p.Value = schema.Float(b.sum / float64(b.count))
		}
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
	return points
}

// SitesIn returns the sorted distinct sites that have records of metric.
func SitesIn(records []schema.MetricRecord, metric schema.MetricTag) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		if r.IsMetadata() || r.Metric != metric || r.LandingSite == "" {
			continue
		}
		seen[r.LandingSite] = struct{}{}
	}
	sites := make([]string, 0, len(seen))
	for s := range seen {
		sites = append(sites, s)
	}
	slices.Sort(sites)
	return sites
}

// AllSiteSeries builds one series per site present for metric, sorted by site.
func AllSiteSeries(records []schema.MetricRecord, metric schema.MetricTag, log *zap.Logger) []schema.SiteSeries {
	sites := SitesIn(records, metric)
	out := make([]schema.SiteSeries, 0, len(sites))
	for _, site := range sites {
		out = append(out, schema.SiteSeries{
			Site: site,
			Data: GetSeries(records, site, metric, log),
		})
	}
	return out
}

// SelectSeries resolves a site selector: the "all" pseudo-site aggregates every
// site, a known site returns its own series, and anything else yields nothing.
func SelectSeries(records []schema.MetricRecord, site string, metric schema.MetricTag, log *zap.Logger) []schema.TimeSeriesPoint {
	switch {
	case site == schema.AllSites:
		return AggregateAll(records, metric)
	case schema.IsValidSite(site):
		return GetSeries(records, site, metric, log)
	default:
		return []schema.TimeSeriesPoint{}
	}
}
