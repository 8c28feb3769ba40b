package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/worldfishcenter/landings/schema"
)

// writeJSONResultsForSeasonal marshals the schema.SeasonalResult to JSON and writes it.
func writeJSONResultsForSeasonal(w io.Writer, result schema.SeasonalResult, precision int) error {
	for i := range result.Months {
		result.Months[i].Value = schema.RoundTo(result.Months[i].Value, precision)
	}
	return writeJSON(w, result)
}

// writeCSVResultsForSeasonal writes the twelve monthly buckets to a CSV writer.
func writeCSVResultsForSeasonal(w *csv.Writer, result schema.SeasonalResult, fmtFloat func(float64) string) error {
	if err := w.Write([]string{"site", "metric", "month", "label", "value"}); err != nil {
		return err
	}
	for _, m := range result.Months {
		row := []string{
			result.Site,
			string(result.Metric),
			strconv.Itoa(m.Month),
			m.Label,
			fmtFloat(m.Value),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeJSONResultsForYearly marshals the schema.YearlyResult to JSON and writes it.
func writeJSONResultsForYearly(w io.Writer, result schema.YearlyResult, precision int) error {
	result.Points = roundSeries(result.Points, precision)
	return writeJSON(w, result)
}

// writeCSVResultsForYearly writes one row per year to a CSV writer.
func writeCSVResultsForYearly(w *csv.Writer, result schema.YearlyResult, fmtFloat func(float64) string) error {
	if err := w.Write([]string{"site", "metric", "year", "value"}); err != nil {
		return err
	}
	for _, p := range result.Points {
		row := []string{
			result.Site,
			string(result.Metric),
			p.Time().Format("2006"),
			formatOptional(p.Value, fmtFloat, ""),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeCSVResultsForChange writes a single comparison row to a CSV writer.
// A missing comparison leaves the period and change columns empty.
func writeCSVResultsForChange(w *csv.Writer, result schema.ChangeResult) error {
	if err := w.Write([]string{"site", "metric", "period", "previous", "current", "change", "trend"}); err != nil {
		return err
	}
	row := []string{result.Site, string(result.Metric), string(result.Period), "", "", "", "no_data"}
	if c := result.Change; c != nil {
		row[3] = c.PreviousPeriod
		row[4] = c.CurrentPeriod
		row[5] = c.Display
		row[6] = trendKey(c)
	}
	return w.Write(row)
}

// trendKey is the machine-readable form of the change label.
func trendKey(c *schema.PercentChange) string {
	switch {
	case c.Change > 0:
		return "rising"
	case c.Change < 0:
		return "falling"
	default:
		return "flat"
	}
}
