package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

// PrintSites outputs the landing site list, dispatching based on the output format configured.
func PrintSites(sites []schema.SiteInfo, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(4)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, sites)
		}, "Wrote JSON site list")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"id", "label", "longitude", "latitude"}, func(csvWriter *csv.Writer) error {
				return writeCSVResultsForSites(csvWriter, sites, fmtFloat)
			})
		}, "Wrote CSV site list")
	case schema.ParquetOut:
		return errParquetSeriesOnly
	default:
		return WriteSitesTable(os.Stdout, sites, fmtFloat)
	}
}

// PrintSummaries outputs per-site averages, dispatching based on the output format configured.
func PrintSummaries(summaries []schema.SiteSummary, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONResultsForSummaries(w, summaries, cfg.Precision)
		}, "Wrote JSON site summaries")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"site", "avg_cpue", "avg_catch", "count"}, func(csvWriter *csv.Writer) error {
				return writeCSVResultsForSummaries(csvWriter, summaries, fmtFloat, intFmt)
			})
		}, "Wrote CSV site summaries")
	case schema.ParquetOut:
		return errParquetSeriesOnly
	default:
		return WriteSummaryTable(os.Stdout, summaries, fmtFloat, intFmt, duration)
	}
}

// WriteSitesTable writes one row per landing site.
func WriteSitesTable(w io.Writer, sites []schema.SiteInfo, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Site", "Longitude", "Latitude"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(sites))
	for _, s := range sites {
		data = append(data, []string{s.ID, s.Label, fmtFloat(s.Bounds[0]), fmtFloat(s.Bounds[1])})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d landing sites.\n", len(sites))
	return err
}

// WriteSummaryTable writes the average CPUE and catch of each site.
func WriteSummaryTable(w io.Writer, summaries []schema.SiteSummary, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Site", "Avg CPUE (kg/fisher/day)", "Avg Catch (kg)", "Months"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		data = append(data, []string{
			schema.SiteLabel(s.Site),
			fmtFloat(s.AvgCPUE),
			fmtFloat(s.AvgCatch),
			fmt.Sprintf(intFmt, s.Count),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Summarized %d sites in %v.\n", len(summaries), duration)
	return err
}
