package cmd

import (
	"cmp"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/internal/iocache"
	"github.com/worldfishcenter/landings/schema"
)

// historyConfig loads and validates only the query history settings.
// An empty backend means history tracking is disabled.
func historyConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("history-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString("history-db-connect")
	if _, ok := schema.ValidHistoryBackends[backend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetup loads the history settings and opens the history store.
func historySetup(_ *cobra.Command, _ []string) error {
	if err := historyConfig(); err != nil {
		return err
	}
	if err := iocache.InitStores("", "", cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	return nil
}

// historyCmd focused on query history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded query history and exports",
	Long: `Manage the history of queries answered by the data service.

When --history-backend is set, every computed site series is recorded with:
- Run metadata (timestamp, site, metric, source, duration)
- The series points it produced, gaps included

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show history statistics
  export  - Export history to Parquet for analytics
  clear   - Remove all recorded history
  migrate - Run database schema migrations

Examples:
  # Record history while querying
  landings series --site nungwi --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  landings history export --history-backend sqlite --output-file landings-history`,
}

// historyClearCmd clears the query history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded query history",
	Long: `Delete all recorded query runs and series points.

WARNING: This action cannot be undone. Consider exporting data first.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historyConfig()
	},
	Run: func(_ *cobra.Command, _ []string) {
		dbPath := cmp.Or(cfg.HistoryDBConnect, contract.GetHistoryDBFilePath())
		if err := iocache.ClearHistory(cfg.HistoryBackend, dbPath, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("Query history cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display query history statistics and connection details",
	Long: `Show the backend, connection state, number of recorded runs and points,
and the row count of each history table.`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetHistoryStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports query history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export query history to Parquet for BI tools and analytics",
	Long: `Export all recorded history to two Parquet files named after --output-file:
  <output-file>.query_runs.parquet     run metadata
  <output-file>.series_points.parquet  series points, gaps stored as null

Examples:
  landings history export --history-backend sqlite --output-file history
  duckdb -c "SELECT site, avg(value) FROM 'history.series_points.parquet' GROUP BY site"`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(os.Stdout, iocache.Manager.GetHistoryStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
// It does not open the store so that migrations can run on a fresh database.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the query history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  landings history migrate --history-backend sqlite

  # Rollback to the initial state
  landings history migrate --history-backend sqlite --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historyConfig()
	},
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		result, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		if !result.Changed {
			fmt.Printf("No migration needed. Database is already at version %d.\n", result.To)
			return
		}
		fmt.Printf("Successfully migrated from version %d to version %d\n", result.From, result.To)
	},
}
