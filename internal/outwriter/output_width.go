package outwriter

import (
	"os"

	"github.com/worldfishcenter/landings/internal/contract"
	"golang.org/x/term"
)

// Chart bounds in terminal cells.
const (
	minChartWidth  = 20
	maxChartWidth  = 120
	chartHeight    = 12
	chartAxisWidth = 14 // y-axis labels and tick marks
)

// GetTerminalWidth returns the configured width override, the detected terminal
// width, or a conservative default when neither is available.
func GetTerminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}

	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Fallback to conservative default if terminal size can't be detected
		return 80
	}
	return detectedWidth
}

// GetChartWidth calculates the plot width for a series of n points so that the
// chart and its axis fit in the terminal.
func GetChartWidth(cfg *contract.Config, n int) int {
	available := GetTerminalWidth(cfg) - chartAxisWidth
	if available > maxChartWidth {
		available = maxChartWidth
	}
	if n > 0 && n < available {
		// one column per point keeps monthly steps readable
		available = max(n, minChartWidth)
	}
	if available < minChartWidth {
		return minChartWidth
	}
	return available
}
