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
	"github.com/worldfishcenter/landings/internal/parquet"
	"github.com/worldfishcenter/landings/schema"
)

// errParquetFileRequired is returned when parquet output would go to stdout.
var errParquetFileRequired = errors.New("parquet output requires --output-file")

// PrintSeriesResult outputs a site data query, dispatching based on the output format configured.
func PrintSeriesResult(result schema.SelectedSiteResult, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := printJSONResultsForSeries(result, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printCSVResultsForSeries(result, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := printParquetResultsForSeries(result, cfg); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		if err := WriteSeriesTable(os.Stdout, result, cfg, fmtFloat, duration); err != nil {
			return fmt.Errorf("error writing series table output: %w", err)
		}
	}
	return nil
}

// printJSONResultsForSeries handles opening the file and calling the JSON writer.
func printJSONResultsForSeries(result schema.SelectedSiteResult, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSONResultsForSeries(w, result, cfg.Precision)
	}, "Wrote JSON series results")
}

// printCSVResultsForSeries handles opening the file and calling the CSV writer.
func printCSVResultsForSeries(result schema.SelectedSiteResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeCSVResultsForSeries(csvWriter, result, fmtFloat)
	}, "Wrote CSV series results")
}

// printParquetResultsForSeries writes every point of the result to a Parquet file.
func printParquetResultsForSeries(result schema.SelectedSiteResult, cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return errParquetFileRequired
	}
	rows := parquet.ConvertSiteResult(result)
	if err := parquet.WriteSeriesParquet(rows, cfg.OutputFile); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote %d series rows to %s\n", len(rows), cfg.OutputFile)
	return nil
}

// WriteSeriesTable writes the selected series as a two-column table, preceded by
// a chart when charts are enabled.
func WriteSeriesTable(w io.Writer, result schema.SelectedSiteResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if cfg.Chart {
		caption := chartCaption(result.Site, result.Metric, result.SelectedData, "Jan 2006")
		if err := writeChart(w, result.SelectedData, cfg, caption); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(w)

	// --- 1. Define Headers ---
	table.Header([]string{"Month", metricHeader(result.Metric, cfg)})

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// --- 3. Prepare Data Rows ---
	var data [][]string
	gaps := 0
	for _, p := range result.SelectedData {
		if !schema.IsFinite(p.Value) {
			gaps++
		}
		data = append(data, []string{
			p.Time().Format("Jan 2006"),
			formatMetricValue(p.Value, result.Metric, cfg, fmtFloat),
		})
	}

	// --- 4. Render the table ---
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%s at %s: %d points (%d gaps) across %d sites. Query completed in %v.\n",
		result.Metric, schema.SiteLabel(result.Site), len(result.SelectedData), gaps, len(result.AllSitesData), duration)
	return err
}
