package outwriter

import (
	"fmt"
	"io"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

// noChartData is printed in place of a chart when a series has no values.
const noChartData = "No data available"

// chartValues maps a series to plot values. Gaps become NaN, which the plot skips.
func chartValues(series []schema.TimeSeriesPoint) ([]float64, bool) {
	data := make([]float64, len(series))
	finite := false
	for i, p := range series {
		if schema.IsFinite(p.Value) {
			data[i] = *p.Value
			finite = true
			continue
		}
		data[i] = math.NaN()
	}
	return data, finite
}

// renderChart draws a single-series line chart with the given caption.
func renderChart(series []schema.TimeSeriesPoint, cfg *contract.Config, caption string) string {
	data, ok := chartValues(series)
	if !ok {
		return noChartData
	}

	opts := []asciigraph.Option{
		asciigraph.Height(chartHeight),
		asciigraph.Width(GetChartWidth(cfg, len(data))),
		asciigraph.Precision(uint(cfg.Precision)),
		asciigraph.Caption(caption),
	}
	if cfg.UseColors {
		opts = append(opts, asciigraph.SeriesColors(asciigraph.Blue))
	}
	return asciigraph.Plot(data, opts...)
}

// writeChart writes a chart of the series followed by a blank line.
func writeChart(w io.Writer, series []schema.TimeSeriesPoint, cfg *contract.Config, caption string) error {
	_, err := fmt.Fprintf(w, "%s\n\n", renderChart(series, cfg, caption))
	return err
}

// chartCaption describes the plotted range, e.g. "median_cpue at nungwi (Jan 2023 - Dec 2023)".
func chartCaption(site string, metric schema.MetricTag, series []schema.TimeSeriesPoint, layout string) string {
	caption := fmt.Sprintf("%s at %s", metric, site)
	if len(series) == 0 {
		return caption
	}
	first := series[0].Time().Format(layout)
	last := series[len(series)-1].Time().Format(layout)
	return fmt.Sprintf("%s (%s - %s)", caption, first, last)
}
