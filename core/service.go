package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/internal/logger"
	"github.com/worldfishcenter/landings/internal/memcache"
	"github.com/worldfishcenter/landings/schema"
)

// DataService is the cached data-access layer over a metric source.
//
// Whole-dataset fetches go through a long-lived bulk cache and, when a cache
// manager is configured, a durable snapshot store. Per-query results go through
// a short-lived query cache keyed by "<metric>-<site>".
type DataService struct {
	source  contract.MetricSource
	mgr     contract.CacheManager
	bulk    *memcache.Cache[[]schema.MetricRecord]
	queries *memcache.Cache[schema.SelectedSiteResult]
	bulkTTL time.Duration
	log     *zap.Logger
	now     func() time.Time
}

// ServiceOption configures a DataService.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	queryTTL  time.Duration
	bulkTTL   time.Duration
	cacheSize int
	mgr       contract.CacheManager
	log       *zap.Logger
	now       func() time.Time
}

// WithTTLs overrides the query and bulk cache lifetimes.
func WithTTLs(query, bulk time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		if query > 0 {
			o.queryTTL = query
		}
		if bulk > 0 {
			o.bulkTTL = bulk
		}
	}
}

// WithCacheSize sets the maximum entries of each in-memory cache.
func WithCacheSize(n int) ServiceOption {
	return func(o *serviceOptions) { o.cacheSize = n }
}

// WithCacheManager enables the durable snapshot and history stores.
func WithCacheManager(mgr contract.CacheManager) ServiceOption {
	return func(o *serviceOptions) { o.mgr = mgr }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(o *serviceOptions) { o.log = l }
}

// WithClock overrides the time source for every cache tier.
func WithClock(now func() time.Time) ServiceOption {
	return func(o *serviceOptions) { o.now = now }
}

// NewDataService creates a service reading from source.
func NewDataService(source contract.MetricSource, opts ...ServiceOption) *DataService {
	o := serviceOptions{
		queryTTL:  schema.QueryCacheTTL,
		bulkTTL:   schema.BulkCacheTTL,
		cacheSize: schema.DefaultCacheSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrNop(o.log).With(zap.String("source", string(source.Kind())))

	return &DataService{
		source: source,
		mgr:    o.mgr,
		bulk: memcache.New[[]schema.MetricRecord](o.bulkTTL, o.cacheSize,
			memcache.WithClock(o.now), memcache.WithLogger(log), memcache.WithName("bulk")),
		queries: memcache.New[schema.SelectedSiteResult](o.queryTTL, o.cacheSize,
			memcache.WithClock(o.now), memcache.WithLogger(log), memcache.WithName("query")),
		bulkTTL: o.bulkTTL,
		log:     log,
		now:     o.now,
	}
}

// Source returns the underlying metric source.
func (s *DataService) Source() contract.MetricSource {
	return s.source
}

// Records returns every record, served from the bulk cache when fresh.
func (s *DataService) Records(ctx context.Context) ([]schema.MetricRecord, error) {
	records, err := s.bulk.DoContext(ctx, snapshotKey(s.source), s.cachedRecords)
	if err != nil {
		return nil, err
	}
	// Cached slices are shared between callers.
	return slices.Clone(records), nil
}

// GetSiteData returns the selected series for site plus every site's series for
// the metric. Site "all" selects the cross-site average.
func (s *DataService) GetSiteData(ctx context.Context, site string, metric schema.MetricTag) (schema.SelectedSiteResult, error) {
	if _, ok := schema.ValidMetrics[metric]; !ok {
		return schema.SelectedSiteResult{}, fmt.Errorf("failed to fetch %s data: unknown metric", metric)
	}
	if err := s.source.Supports(metric); err != nil {
		if errors.Is(err, contract.ErrNotImplemented) {
			return schema.SelectedSiteResult{}, err
		}
		return schema.SelectedSiteResult{}, fmt.Errorf("failed to fetch %s data: %w", metric, err)
	}

	key := fmt.Sprintf("%s-%s", metric, site)
	result, err := s.queries.DoContext(ctx, key, func(ctx context.Context) (schema.SelectedSiteResult, error) {
		start := s.now()
		records, err := s.Records(ctx)
		if err != nil {
			return schema.SelectedSiteResult{}, err
		}
		result := schema.SelectedSiteResult{
			Site:         site,
			Metric:       metric,
			SelectedData: SelectSeries(records, site, metric, s.log),
			AllSitesData: AllSiteSeries(records, metric, s.log),
		}
		s.recordHistory(start, site, metric, result.SelectedData)
		return result, nil
	})
	if err != nil {
		return schema.SelectedSiteResult{}, fmt.Errorf("failed to fetch %s data: %w", metric, err)
	}
	return result, nil
}

// GetCatchData returns the CPUE series for site.
func (s *DataService) GetCatchData(ctx context.Context, site string) (schema.SelectedSiteResult, error) {
	return s.GetSiteData(ctx, site, schema.MedianCPUE)
}

// GetRevenueData returns the RPUE series for site. Sources without revenue
// data return contract.ErrNotImplemented.
func (s *DataService) GetRevenueData(ctx context.Context, site string) (schema.SelectedSiteResult, error) {
	return s.GetSiteData(ctx, site, schema.MedianRPUE)
}

// SeriesOption adjusts the selected series before a statistic is derived from it.
type SeriesOption func(*seriesOptions)

type seriesOptions struct {
	rate float64
}

// WithRate scales every value of the selected series by rate, e.g. a currency rate.
func WithRate(rate float64) SeriesOption {
	return func(o *seriesOptions) { o.rate = rate }
}

// selectedSeries fetches the selected series of site and applies opts.
func (s *DataService) selectedSeries(ctx context.Context, site string, metric schema.MetricTag, opts []SeriesOption) ([]schema.TimeSeriesPoint, error) {
	o := seriesOptions{rate: 1}
	for _, opt := range opts {
		opt(&o)
	}
	result, err := s.GetSiteData(ctx, site, metric)
	if err != nil {
		return nil, err
	}
	if o.rate == 1 {
		return result.SelectedData, nil
	}
	return ConvertSeries(result.SelectedData, o.rate), nil
}

// Seasonal returns the month-of-year medians of the selected series.
func (s *DataService) Seasonal(ctx context.Context, site string, metric schema.MetricTag, opts ...SeriesOption) ([12]schema.MonthlyValue, error) {
	series, err := s.selectedSeries(ctx, site, metric, opts)
	if err != nil {
		return [12]schema.MonthlyValue{}, err
	}
	return MonthlyMedian(series), nil
}

// Yearly returns the calendar-year means of the selected series.
func (s *DataService) Yearly(ctx context.Context, site string, metric schema.MetricTag, opts ...SeriesOption) ([]schema.TimeSeriesPoint, error) {
	series, err := s.selectedSeries(ctx, site, metric, opts)
	if err != nil {
		return nil, err
	}
	return YearlyRollup(series), nil
}

// Change returns the percent change between the two latest periods of the
// selected series. Yearly mode compares calendar-year means.
func (s *DataService) Change(ctx context.Context, site string, metric schema.MetricTag, mode schema.PeriodMode, opts ...ChangeOption) (*schema.PercentChange, error) {
	result, err := s.GetSiteData(ctx, site, metric)
	if err != nil {
		return nil, err
	}
	series := result.SelectedData
	if mode == schema.YearlyPeriod {
		series = YearlyRollup(series)
	}
	return PercentChange(series, mode, opts...), nil
}

// summaryProvider is implemented by sources carrying precomputed summaries.
type summaryProvider interface {
	SummaryStats() []schema.SiteSummary
}

// siteLister is implemented by sources carrying their own site list.
type siteLister interface {
	Sites() []string
}

// Summaries returns per-site averages. Precomputed summaries from the source
// are preferred; otherwise they are computed from the records.
func (s *DataService) Summaries(ctx context.Context) ([]schema.SiteSummary, error) {
	if p, ok := s.source.(summaryProvider); ok {
		if summary := p.SummaryStats(); len(summary) > 0 {
			return summary, nil
		}
	}
	records, err := s.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch summary data: %w", err)
	}
	return SummarizeSites(records), nil
}

// Sites returns display information for every landing site the source knows.
func (s *DataService) Sites(ctx context.Context) ([]schema.SiteInfo, error) {
	var ids []string
	switch src := s.source.(type) {
	case siteLister:
		ids = src.Sites()
	default:
		if s.source.Kind() == schema.APISource {
			ids = slices.Clone(schema.LandingSites)
			break
		}
		records, err := s.Records(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch site data: %w", err)
		}
		ids = SitesIn(records, schema.MedianCPUE)
	}

	out := make([]schema.SiteInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.SiteInfo(id))
	}
	return out, nil
}

// SiteInfo returns the label and map bounds for a site.
func (s *DataService) SiteInfo(site string) schema.SiteInfo {
	return schema.GetSiteInfo(site)
}

// CacheStats returns the bulk and query cache counters.
func (s *DataService) CacheStats() (bulk, query schema.MemoryCacheStats) {
	return s.bulk.Stats(), s.queries.Stats()
}

// Close releases the in-memory caches.
func (s *DataService) Close() {
	s.bulk.Close()
	s.queries.Close()
}
