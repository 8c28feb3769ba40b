package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

// missingValue is shown in tables for a gap in a series.
const missingValue = "-"

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	return writeRows(csvWriter)
}

// createFormatters creates the common formatter closures used across multiple output types.
// Values are rounded half away from zero before formatting.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return strconv.FormatFloat(schema.RoundTo(v, precision), 'f', precision, 64)
	}
	return fmtFloat, intFmt
}

// formatOptional renders a possibly missing value, using missing for gaps.
func formatOptional(v *float64, fmtFloat func(float64) string, missing string) string {
	if !schema.IsFinite(v) {
		return missing
	}
	return fmtFloat(*v)
}

// formatMetricValue renders a value for a table cell in the metric's natural unit.
func formatMetricValue(v *float64, metric schema.MetricTag, cfg *contract.Config, fmtFloat func(float64) string) string {
	if !schema.IsFinite(v) {
		return missingValue
	}
	switch metric {
	case schema.MedianRPUE:
		return schema.FormatCurrency(*v, cfg.Currency)
	case schema.Catch:
		return schema.FormatNumber(*v)
	default:
		return fmtFloat(*v)
	}
}

// formatDate renders an epoch-millisecond timestamp as a UTC date.
func formatDate(ts int64) string {
	return time.UnixMilli(ts).UTC().Format(contract.DateFormat)
}

// roundSeries returns a copy of series rounded for presentation.
func roundSeries(series []schema.TimeSeriesPoint, precision int) []schema.TimeSeriesPoint {
	out := make([]schema.TimeSeriesPoint, len(series))
	for i, p := range series {
		out[i] = schema.TimeSeriesPoint{Timestamp: p.Timestamp}
		if schema.IsFinite(p.Value) {
			out[i].Value = schema.Float(schema.RoundTo(*p.Value, precision))
		}
	}
	return out
}

// metricHeader labels a value column, e.g. "median_cpue (kg/fisher/day)".
func metricHeader(metric schema.MetricTag, cfg *contract.Config) string {
	if metric == schema.MedianRPUE {
		return fmt.Sprintf("%s (%s)", metric, cfg.Currency)
	}
	if unit := schema.MetricUnit(metric); unit != "" {
		return fmt.Sprintf("%s (%s)", metric, unit)
	}
	return string(metric)
}
