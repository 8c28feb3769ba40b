package cmd

import (
	"github.com/spf13/cobra"

	"github.com/worldfishcenter/landings/core"
	"github.com/worldfishcenter/landings/internal/contract"
)

// seriesCmd prints the monthly series of one site or of all sites.
var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Show the monthly series of a metric for a landing site.",
	Long: `Show the monthly time series of a metric for one landing site, or the
cross-site average when --site is 'all'.

The all-sites series averages every site that has a valid value in a month.
Months where no site reported stay in the series as gaps ("-" in tables,
empty in CSV, null in JSON).

Examples:
  # CPUE averaged over every landing site
  landings series

  # Catch at Nungwi with a terminal chart
  landings series --site nungwi --metric catch --chart

  # Revenue in US dollars, exported to CSV
  landings series --metric median_rpue --currency USD --output csv --output-file rpue.csv

  # Export every per-site series to Parquet
  landings series --output parquet --output-file series.parquet`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSeries(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot show series", err)
		}
	},
}
