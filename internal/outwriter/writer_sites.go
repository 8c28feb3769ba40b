package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/worldfishcenter/landings/schema"
)

func writeCSVResultsForSites(w *csv.Writer, sites []schema.SiteInfo, fmtFloat func(float64) string) error {
	for _, s := range sites {
		if err := w.Write([]string{s.ID, s.Label, fmtFloat(s.Bounds[0]), fmtFloat(s.Bounds[1])}); err != nil {
			return err
		}
	}
	return nil
}

// writeJSONResultsForSummaries writes summaries with averages rounded to the configured precision.
func writeJSONResultsForSummaries(w io.Writer, summaries []schema.SiteSummary, precision int) error {
	out := make([]schema.SiteSummary, len(summaries))
	for i, s := range summaries {
		s.AvgCPUE = schema.RoundTo(s.AvgCPUE, precision)
		s.AvgCatch = schema.RoundTo(s.AvgCatch, precision)
		out[i] = s
	}
	return writeJSON(w, out)
}

func writeCSVResultsForSummaries(w *csv.Writer, summaries []schema.SiteSummary, fmtFloat func(float64) string, intFmt string) error {
	for _, s := range summaries {
		row := []string{s.Site, fmtFloat(s.AvgCPUE), fmtFloat(s.AvgCatch), fmt.Sprintf(intFmt, s.Count)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
