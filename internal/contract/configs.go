package contract

import (
	"cmp"
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"

	"github.com/worldfishcenter/landings/schema"
)

// Default values for configuration.
const (
	DefaultPrecision   = 2
	MaxPrecision       = 4
	DefaultAPITimeout  = 10 * time.Second
	DefaultAPIAttempts = 3
	DefaultAPIBackoff  = time.Second
	DefaultLocalAPIURL = "http://localhost:3001/api"
	DefaultDataDir     = "data"
	DefaultLogLevel    = "warn"
)

// DefaultExchangeRates converts one TZS into the target currency.
var DefaultExchangeRates = map[schema.Currency]float64{
	schema.TZS: 1,
	schema.USD: 0.00038,
	schema.EUR: 0.00035,
}

// DateFormat is the date representation used in CSV output.
var DateFormat = "2006-01-02"

// Config holds the runtime configuration for data access.
// This struct remains the "final, validated" config.
type Config struct {
	Source  schema.DataSource
	DataDir string
	APIURL  string
	Env     string

	APITimeout  time.Duration
	APIAttempts int
	APIBackoff  time.Duration

	QueryTTL  time.Duration
	BulkTTL   time.Duration
	CacheSize int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Site     string
	Metric   schema.MetricTag
	Period   schema.PeriodMode
	SkipGaps bool

	Currency      schema.Currency
	ExchangeRates map[schema.Currency]float64

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	Chart      bool
	UseColors  bool

	LogLevel string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Source           string `mapstructure:"source"`
	DataDir          string `mapstructure:"data-dir"`
	APIURL           string `mapstructure:"api-url"`
	Env              string `mapstructure:"env"`
	APITimeout       string `mapstructure:"api-timeout"`
	APIAttempts      int    `mapstructure:"api-attempts"`
	APIBackoff       string `mapstructure:"api-backoff"`
	QueryTTL         string `mapstructure:"query-ttl"`
	BulkTTL          string `mapstructure:"bulk-ttl"`
	CacheSize        int    `mapstructure:"cache-size"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	Site             string `mapstructure:"site"`
	Metric           string `mapstructure:"metric"`
	Currency         string `mapstructure:"currency"`
	Precision        int    `mapstructure:"precision"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	Chart            bool   `mapstructure:"chart"`
	Color            string `mapstructure:"color"`
	LogLevel         string `mapstructure:"log-level"`

	// --- Fields from changeCmd.Flags() ---
	Period   string `mapstructure:"period"`
	SkipGaps bool   `mapstructure:"skip-gaps"`

	// --- Exchange rates from config file ---
	ExchangeRates map[string]float64 `mapstructure:"exchange-rates"`

	// Getenv reads process environment for base URL fallbacks. Nil means no environment.
	Getenv func(string) string `mapstructure:"-"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.ExchangeRates != nil {
		clone.ExchangeRates = make(map[schema.Currency]float64, len(c.ExchangeRates))
		maps.Copy(clone.ExchangeRates, c.ExchangeRates)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	if err := processQuery(cfg, input); err != nil {
		return err
	}
	if err := processCurrency(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processSource(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of connection strings
// for the networked backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must start with redis:// or rediss://")
		}
	}
	return nil
}

// ResolveAPIURL picks the API base URL. An explicit URL wins. In production the
// VERCEL_URL deployment host is used; otherwise REACT_APP_API_URL or the local default.
func ResolveAPIURL(explicit, env string, getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	base := strings.TrimSpace(explicit)
	if base == "" {
		if strings.EqualFold(env, "production") {
			host := getenv("VERCEL_URL")
			if host == "" {
				return "", fmt.Errorf("api-url or VERCEL_URL is required in production")
			}
			base = "https://" + host + "/api"
		} else if v := getenv("REACT_APP_API_URL"); v != "" {
			base = v
		} else {
			base = DefaultLocalAPIURL
		}
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid api url %q: must be absolute http(s) URL", base)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid api url scheme %q: must be http or https", u.Scheme)
	}
	return strings.TrimRight(base, "/"), nil
}

// validateSimpleInputs processes and validates presentation and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Chart = input.Chart
	cfg.SkipGaps = input.SkipGaps

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", input.LogLevel)
	}

	if input.CacheSize <= 0 {
		return fmt.Errorf("cache-size must be greater than 0 (received %d)", input.CacheSize)
	}
	cfg.CacheSize = input.CacheSize

	return nil
}

// processDurations parses the timeout, backoff and TTL settings.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	parse := func(name, raw string, def time.Duration) (time.Duration, error) {
		if strings.TrimSpace(raw) == "" {
			return def, nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s '%s': %w", name, raw, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%s must be positive (received %s)", name, raw)
		}
		return d, nil
	}

	var err error
	if cfg.APITimeout, err = parse("api-timeout", input.APITimeout, DefaultAPITimeout); err != nil {
		return err
	}
	if cfg.APIBackoff, err = parse("api-backoff", input.APIBackoff, DefaultAPIBackoff); err != nil {
		return err
	}
	if cfg.QueryTTL, err = parse("query-ttl", input.QueryTTL, schema.QueryCacheTTL); err != nil {
		return err
	}
	if cfg.BulkTTL, err = parse("bulk-ttl", input.BulkTTL, schema.BulkCacheTTL); err != nil {
		return err
	}

	if input.APIAttempts <= 0 {
		return fmt.Errorf("api-attempts must be greater than 0 (received %d)", input.APIAttempts)
	}
	cfg.APIAttempts = input.APIAttempts
	return nil
}

// processQuery handles the site, metric and period selection.
func processQuery(cfg *Config, input *ConfigRawInput) error {
	cfg.Site = strings.ToLower(strings.TrimSpace(input.Site))
	if cfg.Site == "" {
		cfg.Site = schema.AllSites
	}

	cfg.Metric = schema.MetricTag(strings.ToLower(strings.TrimSpace(input.Metric)))
	if cfg.Metric == "" {
		cfg.Metric = schema.MedianCPUE
	}
	if _, ok := schema.ValidMetrics[cfg.Metric]; !ok {
		return fmt.Errorf("invalid metric '%s'. must be median_cpue, median_rpue, catch", input.Metric)
	}

	cfg.Period = schema.PeriodMode(strings.ToLower(strings.TrimSpace(input.Period)))
	if cfg.Period == "" {
		cfg.Period = schema.MonthlyPeriod
	}
	if _, ok := schema.ValidPeriodModes[cfg.Period]; !ok {
		return fmt.Errorf("invalid period '%s'. must be monthly, yearly", input.Period)
	}
	return nil
}

// processCurrency validates the display currency and merges custom exchange rates over the defaults.
func processCurrency(cfg *Config, input *ConfigRawInput) error {
	cfg.Currency = schema.Currency(strings.ToUpper(strings.TrimSpace(input.Currency)))
	if cfg.Currency == "" {
		cfg.Currency = schema.TZS
	}
	if _, ok := schema.ValidCurrencies[cfg.Currency]; !ok {
		return fmt.Errorf("invalid currency '%s'. must be TZS, USD, EUR", input.Currency)
	}

	cfg.ExchangeRates = make(map[schema.Currency]float64, len(DefaultExchangeRates))
	maps.Copy(cfg.ExchangeRates, DefaultExchangeRates)
	for k, v := range input.ExchangeRates {
		c := schema.Currency(strings.ToUpper(k))
		if _, ok := schema.ValidCurrencies[c]; !ok {
			return fmt.Errorf("invalid exchange rate currency '%s'", k)
		}
		if v <= 0 {
			return fmt.Errorf("exchange rate for %s must be positive (received %v)", c, v)
		}
		cfg.ExchangeRates[c] = v
	}
	return nil
}

// validateBackendConfigs validates snapshot cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Snapshot Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidHistoryBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// processSource validates the data source and resolves the location it reads from.
func processSource(cfg *Config, input *ConfigRawInput) error {
	cfg.Source = schema.DataSource(strings.ToLower(strings.TrimSpace(input.Source)))
	if cfg.Source == "" {
		cfg.Source = schema.StaticSource
	}
	if _, ok := schema.ValidDataSources[cfg.Source]; !ok {
		return fmt.Errorf("invalid source '%s'. must be static, api", input.Source)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(input.Env))

	switch cfg.Source {
	case schema.APISource:
		base, err := ResolveAPIURL(input.APIURL, cfg.Env, input.Getenv)
		if err != nil {
			return err
		}
		cfg.APIURL = base
	default:
		cfg.DataDir = strings.TrimSpace(input.DataDir)
		if cfg.DataDir == "" {
			cfg.DataDir = DefaultDataDir
		}
	}
	return nil
}

// RevalidateQuery applies per-request query overrides, such as MCP tool arguments,
// to an already validated config. Empty values keep the current setting.
func RevalidateQuery(cfg *Config, site, metric, period, currency string) error {
	input := &ConfigRawInput{
		Site:   cmp.Or(site, cfg.Site),
		Metric: cmp.Or(metric, string(cfg.Metric)),
		Period: cmp.Or(period, string(cfg.Period)),
	}
	if err := processQuery(cfg, input); err != nil {
		return err
	}
	if currency == "" {
		return nil
	}
	c := schema.Currency(strings.ToUpper(strings.TrimSpace(currency)))
	if _, ok := schema.ValidCurrencies[c]; !ok {
		return fmt.Errorf("invalid currency '%s'. must be TZS, USD, EUR", currency)
	}
	cfg.Currency = c
	return nil
}
