// Package core has the data service and the derived statistics over landing-site series.
package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/worldfishcenter/landings/internal/apiclient"
	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/internal/dataset"
	"github.com/worldfishcenter/landings/internal/logger"
	"github.com/worldfishcenter/landings/internal/outwriter"
	"github.com/worldfishcenter/landings/schema"
)

// ExecutorFunc defines the function signature for executing the query commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// NewSource builds the metric source selected by cfg.Source.
func NewSource(cfg *contract.Config, log *zap.Logger) (contract.MetricSource, error) {
	switch cfg.Source {
	case schema.APISource:
		return apiclient.New(apiclient.Config{
			BaseURL:     cfg.APIURL,
			Timeout:     cfg.APITimeout,
			MaxAttempts: cfg.APIAttempts,
			Backoff:     cfg.APIBackoff,
		}, log), nil
	default:
		store, err := dataset.Load(cfg.DataDir, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// NewServiceFromConfig builds a data service over the configured source.
// A nil mgr disables the durable snapshot and history stores.
func NewServiceFromConfig(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*DataService, error) {
	log := logger.FromContext(ctx)
	source, err := NewSource(cfg, log)
	if err != nil {
		return nil, err
	}
	opts := []ServiceOption{
		WithTTLs(cfg.QueryTTL, cfg.BulkTTL),
		WithLogger(log),
	}
	if cfg.CacheSize > 0 {
		opts = append(opts, WithCacheSize(cfg.CacheSize))
	}
	if mgr != nil {
		opts = append(opts, WithCacheManager(mgr))
	}
	return NewDataService(source, opts...), nil
}

// withService runs fn against a service built from cfg and closes it afterwards.
func withService(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, fn func(*DataService) error) error {
	svc, err := NewServiceFromConfig(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

// BuildSeriesResult queries the selected site series and applies currency conversion.
func BuildSeriesResult(ctx context.Context, svc *DataService, cfg *contract.Config) (schema.SelectedSiteResult, error) {
	var (
		result schema.SelectedSiteResult
		err    error
	)
	switch cfg.Metric {
	case schema.MedianCPUE:
		result, err = svc.GetCatchData(ctx, cfg.Site)
	case schema.MedianRPUE:
		result, err = svc.GetRevenueData(ctx, cfg.Site)
	default:
		result, err = svc.GetSiteData(ctx, cfg.Site, cfg.Metric)
	}
	if err != nil {
		return schema.SelectedSiteResult{}, err
	}
	return convertResult(result, cfg)
}

// BuildSeasonalResult computes the month-of-year pattern of the selected series.
func BuildSeasonalResult(ctx context.Context, svc *DataService, cfg *contract.Config) (schema.SeasonalResult, error) {
	rate, err := displayRate(cfg)
	if err != nil {
		return schema.SeasonalResult{}, err
	}
	months, err := svc.Seasonal(ctx, cfg.Site, cfg.Metric, WithRate(rate))
	if err != nil {
		return schema.SeasonalResult{}, err
	}
	return schema.SeasonalResult{
		Site:   cfg.Site,
		Metric: cfg.Metric,
		Months: months,
	}, nil
}

// BuildYearlyResult computes the calendar-year means of the selected series.
func BuildYearlyResult(ctx context.Context, svc *DataService, cfg *contract.Config) (schema.YearlyResult, error) {
	rate, err := displayRate(cfg)
	if err != nil {
		return schema.YearlyResult{}, err
	}
	points, err := svc.Yearly(ctx, cfg.Site, cfg.Metric, WithRate(rate))
	if err != nil {
		return schema.YearlyResult{}, err
	}
	return schema.YearlyResult{
		Site:   cfg.Site,
		Metric: cfg.Metric,
		Points: points,
	}, nil
}

// BuildChangeResult computes the percent change between the two latest periods.
// Currency conversion is skipped since a ratio does not depend on it.
func BuildChangeResult(ctx context.Context, svc *DataService, cfg *contract.Config) (schema.ChangeResult, error) {
	var opts []ChangeOption
	if cfg.SkipGaps {
		opts = append(opts, WithSkipGaps())
	}
	change, err := svc.Change(ctx, cfg.Site, cfg.Metric, cfg.Period, opts...)
	if err != nil {
		return schema.ChangeResult{}, err
	}
	return schema.ChangeResult{
		Site:   cfg.Site,
		Metric: cfg.Metric,
		Period: cfg.Period,
		Change: change,
	}, nil
}

// displayRate is the rate that turns values of cfg.Metric into the display currency.
// Only revenue is converted.
func displayRate(cfg *contract.Config) (float64, error) {
	if cfg.Metric != schema.MedianRPUE {
		return 1, nil
	}
	return NewConverter(cfg.ExchangeRates).Rate(cfg.Currency)
}

// convertResult rescales revenue series into the display currency.
func convertResult(result schema.SelectedSiteResult, cfg *contract.Config) (schema.SelectedSiteResult, error) {
	rate, err := displayRate(cfg)
	if err != nil {
		return schema.SelectedSiteResult{}, err
	}
	if rate == 1 {
		return result, nil
	}

	out := schema.SelectedSiteResult{
		Site:         result.Site,
		Metric:       result.Metric,
		SelectedData: ConvertSeries(result.SelectedData, rate),
		AllSitesData: make([]schema.SiteSeries, len(result.AllSitesData)),
	}
	for i, s := range result.AllSitesData {
		out.AllSitesData[i] = schema.SiteSeries{Site: s.Site, Data: ConvertSeries(s.Data, rate)}
	}
	return out, nil
}

// ExecuteSeries prints the selected site series.
// It serves as the main entry point for the 'series' command.
func ExecuteSeries(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return withService(ctx, cfg, mgr, func(svc *DataService) error {
		result, err := BuildSeriesResult(ctx, svc, cfg)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteSeries(result, cfg, time.Since(start))
	})
}

// ExecuteSeasonal prints the month-of-year pattern of the selected series.
func ExecuteSeasonal(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return withService(ctx, cfg, mgr, func(svc *DataService) error {
		result, err := BuildSeasonalResult(ctx, svc, cfg)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteSeasonal(result, cfg, time.Since(start))
	})
}

// ExecuteYearly prints the yearly rollup of the selected series.
func ExecuteYearly(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return withService(ctx, cfg, mgr, func(svc *DataService) error {
		result, err := BuildYearlyResult(ctx, svc, cfg)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteYearly(result, cfg, time.Since(start))
	})
}

// ExecuteChange prints the percent change of the selected series.
func ExecuteChange(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return withService(ctx, cfg, mgr, func(svc *DataService) error {
		result, err := BuildChangeResult(ctx, svc, cfg)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteChange(result, cfg, time.Since(start))
	})
}

// ExecuteSites prints the landing sites known to the source.
func ExecuteSites(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	return withService(ctx, cfg, mgr, func(svc *DataService) error {
		sites, err := svc.Sites(ctx)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteSites(sites, cfg)
	})
}

// ExecuteSummary prints per-site CPUE and catch averages.
func ExecuteSummary(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return withService(ctx, cfg, mgr, func(svc *DataService) error {
		summaries, err := svc.Summaries(ctx)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteSummary(summaries, cfg, time.Since(start))
	})
}

// ExecuteFunc maps a command name to its executor.
func ExecuteFunc(name string) (ExecutorFunc, error) {
	switch name {
	case "series":
		return ExecuteSeries, nil
	case "seasonal":
		return ExecuteSeasonal, nil
	case "yearly":
		return ExecuteYearly, nil
	case "change":
		return ExecuteChange, nil
	case "sites":
		return ExecuteSites, nil
	case "summary":
		return ExecuteSummary, nil
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}
