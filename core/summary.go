package core

import (
	"sort"

	"github.com/worldfishcenter/landings/schema"
)

// SummarizeSites computes per-site averages of CPUE and catch.
// Count is the number of distinct months observed for the site.
func SummarizeSites(records []schema.MetricRecord) []schema.SiteSummary {
	type acc struct {
		cpueSum, catchSum     float64
		cpueCount, catchCount int
		months                map[int64]struct{}
	}
	bySite := make(map[string]*acc)
	for _, r := range records {
		if r.IsMetadata() || r.LandingSite == "" || r.Date.IsZero() {
			continue
		}
		if r.Metric != schema.MedianCPUE && r.Metric != schema.Catch {
			continue
		}
		a, ok := bySite[r.LandingSite]
		if !ok {
			a = &acc{months: make(map[int64]struct{})}
			bySite[r.LandingSite] = a
		}
		a.months[r.Date.UnixMilli()] = struct{}{}
		if !r.IsValid() {
			continue
		}
		switch r.Metric {
		case schema.MedianCPUE:
			a.cpueSum += *r.Value
			a.cpueCount++
		case schema.Catch:
			a.catchSum += *r.Value
			a.catchCount++
		}
	}

	out := make([]schema.SiteSummary, 0, len(bySite))
	for site, a := range bySite {
		s := schema.SiteSummary{Site: site, Count: len(a.months)}
		if a.cpueCount > 0 {
			s.AvgCPUE = a.cpueSum / float64(a.cpueCount)
		}
		if a.catchCount > 0 {
			s.AvgCatch = a.catchSum / float64(a.catchCount)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Site < out[j].Site })
	return out
}
