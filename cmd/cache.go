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

// cacheConfig loads and validates only the snapshot cache settings.
func cacheConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("cache-backend")))
	connStr := viper.GetString("cache-db-connect")
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetup loads the cache settings and opens the snapshot store.
// It skips the full shared setup since no data source is needed.
func cacheSetup(_ *cobra.Command, _ []string) error {
	if err := cacheConfig(); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// cacheCmd focused on cache management.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the durable dataset snapshot cache",
	Long: `Manage the durable snapshot cache that keeps the whole dataset between runs.

The in-memory caches only live for one process. The snapshot cache lets repeated
runs against the landings API skip the bulk fetch until --bulk-ttl expires.

Supported backends: SQLite (default), MySQL, PostgreSQL, Redis, or None

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached snapshots

Examples:
  # Check cache status
  landings cache status

  # Clear a Redis cache
  LANDINGS_CACHE_BACKEND=redis LANDINGS_CACHE_DB_CONNECT=redis://localhost:6379/0 landings cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached dataset snapshots",
	Long: `Delete all cached snapshots from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table
For Redis: Deletes the snapshot keys`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheConfig()
	},
	Run: func(_ *cobra.Command, _ []string) {
		dbPath := cmp.Or(cfg.CacheDBConnect, contract.GetCacheDBFilePath())
		if err := iocache.ClearCache(cfg.CacheBackend, dbPath, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, connection state, number of snapshots, their timestamps
and the storage they use.`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetSnapshotStore()
		if store == nil {
			iocache.PrintCacheStatus(os.Stdout, schema.CacheStatus{Backend: string(cfg.CacheBackend)})
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
