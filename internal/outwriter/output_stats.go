package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

// errParquetSeriesOnly is returned for derived results, which have no Parquet layout.
var errParquetSeriesOnly = errors.New("parquet output is only supported for series")

// PrintSeasonalResult outputs a month-of-year pattern, dispatching based on the output format configured.
func PrintSeasonalResult(result schema.SeasonalResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONResultsForSeasonal(w, result, cfg.Precision)
		}, "Wrote JSON seasonal results")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeCSVResultsForSeasonal(csvWriter, result, fmtFloat)
		}, "Wrote CSV seasonal results")
	case schema.ParquetOut:
		return errParquetSeriesOnly
	default:
		if err := WriteSeasonalTable(os.Stdout, result, cfg, fmtFloat, duration); err != nil {
			return fmt.Errorf("error writing seasonal table output: %w", err)
		}
	}
	return nil
}

// PrintYearlyResult outputs a yearly rollup, dispatching based on the output format configured.
func PrintYearlyResult(result schema.YearlyResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONResultsForYearly(w, result, cfg.Precision)
		}, "Wrote JSON yearly results")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeCSVResultsForYearly(csvWriter, result, fmtFloat)
		}, "Wrote CSV yearly results")
	case schema.ParquetOut:
		return errParquetSeriesOnly
	default:
		if err := WriteYearlyTable(os.Stdout, result, cfg, fmtFloat, duration); err != nil {
			return fmt.Errorf("error writing yearly table output: %w", err)
		}
	}
	return nil
}

// PrintChangeResult outputs a percent change, dispatching based on the output format configured.
func PrintChangeResult(result schema.ChangeResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON change results")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeCSVResultsForChange(csvWriter, result)
		}, "Wrote CSV change results")
	case schema.ParquetOut:
		return errParquetSeriesOnly
	default:
		if err := WriteChangeTable(os.Stdout, result, cfg, duration); err != nil {
			return fmt.Errorf("error writing change table output: %w", err)
		}
	}
	return nil
}

// WriteSeasonalTable writes one row per calendar month.
func WriteSeasonalTable(w io.Writer, result schema.SeasonalResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if cfg.Chart {
		series := make([]schema.TimeSeriesPoint, len(result.Months))
		for i, m := range result.Months {
			series[i] = schema.TimeSeriesPoint{Value: schema.Float(m.Value)}
		}
		caption := fmt.Sprintf("%s at %s by month (Jan - Dec)", result.Metric, result.Site)
		if err := writeChart(w, series, cfg, caption); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Month", "Median " + metricHeader(result.Metric, cfg)})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(result.Months))
	for _, m := range result.Months {
		v := m.Value
		data = append(data, []string{m.Label, formatMetricValue(&v, result.Metric, cfg, fmtFloat)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Seasonal pattern for %s completed in %v.\n", schema.SiteLabel(result.Site), duration)
	return err
}

// WriteYearlyTable writes one row per calendar year.
func WriteYearlyTable(w io.Writer, result schema.YearlyResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if cfg.Chart {
		caption := chartCaption(result.Site, result.Metric, result.Points, "2006")
		if err := writeChart(w, result.Points, cfg, caption); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Year", "Mean " + metricHeader(result.Metric, cfg)})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(result.Points))
	for _, p := range result.Points {
		data = append(data, []string{p.Time().Format("2006"), formatMetricValue(p.Value, result.Metric, cfg, fmtFloat)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Yearly rollup for %s completed in %v.\n", schema.SiteLabel(result.Site), duration)
	return err
}

// WriteChangeTable writes the comparison of the two latest periods.
func WriteChangeTable(w io.Writer, result schema.ChangeResult, cfg *contract.Config, duration time.Duration) error {
	label := contract.GetPlainChangeLabel(result.Change)
	if cfg.UseColors {
		label = contract.GetColorChangeLabel(result.Change)
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Site", "Metric", "Previous", "Current", "Change", "Trend"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	row := []string{schema.SiteLabel(result.Site), string(result.Metric), missingValue, missingValue, missingValue, label}
	if result.Change != nil {
		row[2] = result.Change.PreviousPeriod
		row[3] = result.Change.CurrentPeriod
		row[4] = result.Change.Display + "%"
	}
	if err := table.Append(row); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%s change computed in %v.\n", result.Period, duration)
	return err
}
