// Package cmd defines the command-line interface for landings.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(seasonalCmd)
	rootCmd.AddCommand(yearlyCmd)
	rootCmd.AddCommand(changeCmd)
	rootCmd.AddCommand(sitesCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.String("source", string(schema.StaticSource), "Data source: static or api")
	flags.String("data-dir", contract.DefaultDataDir, "Directory holding the static dataset export")
	flags.String("api-url", "", "Base URL of the landings API (defaults from --env, REACT_APP_API_URL or VERCEL_URL)")
	flags.String("env", "", "Deployment environment used to pick the API base URL: development or production")
	flags.String("api-timeout", contract.DefaultAPITimeout.String(), "Timeout of each API request")
	flags.Int("api-attempts", contract.DefaultAPIAttempts, "Attempts per API request before giving up")
	flags.String("api-backoff", contract.DefaultAPIBackoff.String(), "Wait between API attempts")
	flags.String("query-ttl", schema.QueryCacheTTL.String(), "Lifetime of cached per-site query results")
	flags.String("bulk-ttl", schema.BulkCacheTTL.String(), "Lifetime of the cached whole dataset")
	flags.Int("cache-size", schema.DefaultCacheSize, "Maximum entries of each in-memory cache")
	flags.String("cache-backend", string(schema.SQLiteBackend), "Snapshot cache backend: sqlite or mysql or postgresql or redis or none")
	flags.String("cache-db-connect", "", "Connection string for the cache backend (e.g., user:pass@tcp(host:port)/dbname or redis://host:6379/0)")
	flags.String("history-backend", "", "Query history backend: sqlite or mysql or postgresql or none")
	flags.String("history-db-connect", "", "Connection string for query history (must differ from cache-db-connect)")
	flags.StringP("site", "s", schema.AllSites, "Landing site, or 'all' for the cross-site average")
	flags.StringP("metric", "m", string(schema.MedianCPUE), "Metric: median_cpue or median_rpue or catch")
	flags.String("currency", string(schema.TZS), "Display currency for revenue: TZS or USD or EUR")
	flags.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	flags.String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	flags.String("output-file", "", "Optional path to write output to")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	flags.Bool("chart", false, "Draw a terminal line chart above text tables")
	flags.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	flags.String("log-level", contract.DefaultLogLevel, "Diagnostics level on stderr: debug or info or warn or error")
	flags.String("config", "", "Path to config file")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of changeCmd to Viper
	changeCmd.Flags().String("period", string(schema.MonthlyPeriod), "Compare months or calendar years: monthly or yearly")
	changeCmd.Flags().Bool("skip-gaps", false, "Compare the two latest periods that have data")
	if err := viper.BindPFlags(changeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding change flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
