package cmd

import (
	"github.com/spf13/cobra"

	"github.com/worldfishcenter/landings/core"
	"github.com/worldfishcenter/landings/internal/contract"
)

// changeCmd prints the percent change between the two latest periods.
var changeCmd = &cobra.Command{
	Use:   "change",
	Short: "Show the percent change between the two latest periods.",
	Long: `Compare the latest period of a series with the one before it.

With --period yearly the series is first rolled up into calendar-year means.
The change is reported as "No data" when either period is a gap or the
previous value is zero. Use --skip-gaps to compare the two latest periods
that do have data.

Examples:
  # Month-over-month CPUE change across all sites
  landings change

  # Year-over-year catch change at Matemwe
  landings change --site matemwe --metric catch --period yearly

  # Ignore trailing months without data
  landings change --skip-gaps`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteChange(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot compute change", err)
		}
	},
}
