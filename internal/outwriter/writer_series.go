package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/worldfishcenter/landings/schema"
)

// writeJSONResultsForSeries marshals the schema.SelectedSiteResult to JSON and writes it.
// Values are rounded to the configured precision.
func writeJSONResultsForSeries(w io.Writer, result schema.SelectedSiteResult, precision int) error {
	out := schema.SelectedSiteResult{
		Site:         result.Site,
		Metric:       result.Metric,
		SelectedData: roundSeries(result.SelectedData, precision),
		AllSitesData: make([]schema.SiteSeries, len(result.AllSitesData)),
	}
	for i, s := range result.AllSitesData {
		out.AllSitesData[i] = schema.SiteSeries{Site: s.Site, Data: roundSeries(s.Data, precision)}
	}
	return writeJSON(w, out)
}

// writeCSVResultsForSeries writes the selected series and every per-site series to a CSV writer.
// Gaps are written as empty values.
func writeCSVResultsForSeries(w *csv.Writer, result schema.SelectedSiteResult, fmtFloat func(float64) string) error {
	// 1. Write Header Row
	header := []string{
		"site",
		"metric",
		"date",
		"timestamp",
		"value",
		"selected",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	writePoints := func(site string, points []schema.TimeSeriesPoint, selected bool) error {
		for _, p := range points {
			row := []string{
				site,
				string(result.Metric),
				formatDate(p.Timestamp),
				strconv.FormatInt(p.Timestamp, 10),
				formatOptional(p.Value, fmtFloat, ""),
				strconv.FormatBool(selected),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	}

	// 2. Write Data Rows
	if err := writePoints(result.Site, result.SelectedData, true); err != nil {
		return err
	}
	for _, s := range result.AllSitesData {
		if err := writePoints(s.Site, s.Data, false); err != nil {
			return err
		}
	}
	return nil
}
