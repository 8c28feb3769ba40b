package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/worldfishcenter/landings/schema"
)

// Change label constants.
const (
	RisingValue  = "Rising"  // Rising value
	FallingValue = "Falling" // Falling value
	FlatValue    = "Flat"    // Flat value
	NoDataValue  = "No data" // NoData value
)

// Color variables for console output.
var (
	RisingColor  = color.New(color.FgGreen, color.Bold) // RisingColor marks an increase.
	FallingColor = color.New(color.FgRed, color.Bold)   // FallingColor marks a decrease.
	FlatColor    = color.New(color.FgYellow)            // FlatColor marks no movement.
	NoDataColor  = color.New(color.FgHiBlack)           // NoDataColor marks a missing comparison.
)

// GetPlainChangeLabel returns a plain text label describing a percent change.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainChangeLabel(change *schema.PercentChange) string {
	switch {
	case change == nil:
		return NoDataValue
	case change.Change > 0:
		return RisingValue
	case change.Change < 0:
		return FallingValue
	default:
		return FlatValue
	}
}

// GetColorChangeLabel returns a colored change label for console output (table).
func GetColorChangeLabel(change *schema.PercentChange) string {
	text := GetPlainChangeLabel(change)

	switch text {
	case RisingValue:
		return RisingColor.Sprint("▲ " + text)
	case FallingValue:
		return FallingColor.Sprint("▼ " + text)
	case FlatValue:
		return FlatColor.Sprint("= " + text)
	default:
		return NoDataColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %s\n", msg, UserMessage(err))
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for snapshot storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".landings_cache.db"
	}
	return filepath.Join(homeDir, ".landings_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for history storage.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".landings_history.db"
	}
	return filepath.Join(homeDir, ".landings_history.db")
}

// ParseBoolString parses yes/no style booleans used by flags and env vars.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
