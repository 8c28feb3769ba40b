package cmd

import (
	"github.com/spf13/cobra"

	"github.com/worldfishcenter/landings/core"
	"github.com/worldfishcenter/landings/internal/contract"
)

// sitesCmd lists the landing sites.
var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the landing sites with their coordinates.",
	Long: `List the landing sites known to the data source, with display labels and
the longitude/latitude used to place them on a map.

Examples:
  landings sites
  landings sites --output csv`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSites(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot list sites", err)
		}
	},
}

// summaryCmd prints per-site averages.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show average CPUE and catch for every landing site.",
	Long: `Summarize every landing site with its average CPUE, average catch and the
number of months that have data. Precomputed summary statistics from the
dataset export are used when present.

Examples:
  landings summary
  landings summary --output json --output-file summary.json`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSummary(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot summarize sites", err)
		}
	},
}
