package cmd

import (
	"github.com/spf13/cobra"

	"github.com/worldfishcenter/landings/core"
	"github.com/worldfishcenter/landings/internal/contract"
)

// seasonalCmd prints the month-of-year medians of a series.
var seasonalCmd = &cobra.Command{
	Use:   "seasonal",
	Short: "Show the median of a metric for each calendar month.",
	Long: `Group a site's series by calendar month across all years and show the median
of each month, rounded to two decimals. Months without data show 0.

Examples:
  # Seasonal CPUE pattern across all sites
  landings seasonal

  # Seasonal catch at Kizimkazi with a chart
  landings seasonal --site kizimkazi --metric catch --chart`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSeasonal(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot show seasonal pattern", err)
		}
	},
}

// yearlyCmd prints the calendar-year means of a series.
var yearlyCmd = &cobra.Command{
	Use:   "yearly",
	Short: "Show the mean of a metric for each calendar year.",
	Long: `Average a site's series within each calendar year. Years where every month is
a gap remain in the output as gaps.

Examples:
  # Yearly CPUE for Wete as JSON
  landings yearly --site wete --output json`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteYearly(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot show yearly rollup", err)
		}
	},
}
