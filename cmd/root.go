package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/internal/iocache"
	"github.com/worldfishcenter/landings/internal/logger"
	"github.com/worldfishcenter/landings/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations. sharedSetup attaches the logger to it.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// appLogger is built from the validated log level.
var appLogger *zap.Logger

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "landings",
	Short: "Query Zanzibar fisheries landing-site metrics.",
	Long: `Landings reads monthly CPUE, revenue and catch metrics for the Zanzibar landing sites,
from a static dataset export or the landings API, and derives seasonal patterns,
yearly rollups and period-over-period changes.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in the .env file, config file and ENV variables if set.
func initConfig() {
	// A .env file may provide REACT_APP_API_URL, VERCEL_URL or LANDINGS_* settings.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		contract.LogWarn("Cannot load .env file", err)
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("LANDINGS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("source", schema.StaticSource)
	viper.SetDefault("data-dir", contract.DefaultDataDir)
	viper.SetDefault("api-attempts", contract.DefaultAPIAttempts)
	viper.SetDefault("cache-size", schema.DefaultCacheSize)
	viper.SetDefault("site", schema.AllSites)
	viper.SetDefault("metric", schema.MedianCPUE)
	viper.SetDefault("currency", schema.TZS)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("history-backend", "")
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("color", "yes")
	viper.SetDefault("log-level", contract.DefaultLogLevel)
}

// setConfigFile points viper at --config or the default .landings.yaml locations.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".landings") // Name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	setConfigFile()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config, runs validation and opens the durable stores.
func sharedSetup(_ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	input.Getenv = os.Getenv

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Build the diagnostics logger and carry it through the context.
	log, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	appLogger = log
	rootCtx = logger.WithContext(rootCtx, log)
	log.Debug("configuration loaded",
		zap.String("source", string(cfg.Source)),
		zap.String("site", cfg.Site),
		zap.String("metric", string(cfg.Metric)),
		zap.String("cache_backend", string(cfg.CacheBackend)),
		zap.String("history_backend", string(cfg.HistoryBackend)),
	)

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	cacheManager = iocache.Manager
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer iocache.CloseCaching()
	defer func() {
		if appLogger != nil {
			_ = appLogger.Sync()
		}
	}()
	return rootCmd.Execute()
}
