package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

func ms(year int, m time.Month) int64 {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func sampleSeriesResult() schema.SelectedSiteResult {
	return schema.SelectedSiteResult{
		Site:   schema.AllSites,
		Metric: schema.MedianCPUE,
		SelectedData: []schema.TimeSeriesPoint{
			{Timestamp: ms(2023, 1), Value: schema.Float(2.0)},
			{Timestamp: ms(2023, 2)},
			{Timestamp: ms(2023, 3), Value: schema.Float(3.14159)},
		},
		AllSitesData: []schema.SiteSeries{
			{Site: "nungwi", Data: []schema.TimeSeriesPoint{{Timestamp: ms(2023, 1), Value: schema.Float(2.5)}}},
			{Site: "wete", Data: []schema.TimeSeriesPoint{{Timestamp: ms(2023, 1), Value: schema.Float(1.5)}}},
		},
	}
}

func TestWriteSeriesTable(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Precision: 2, Width: 100}
	fmtFloat, _ := createFormatters(cfg.Precision)

	var buf bytes.Buffer
	err := WriteSeriesTable(&buf, sampleSeriesResult(), cfg, fmtFloat, 100*time.Millisecond)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Jan 2023")
	assert.Contains(t, output, "2.00")
	assert.Contains(t, output, "3.14")
	assert.Contains(t, output, " - ")
	assert.Contains(t, output, "median_cpue at All sites: 3 points (1 gaps) across 2 sites. Query completed in 100ms.")
}

func TestWriteSeriesTableWithChart(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Precision: 2, Width: 100, Chart: true}
	fmtFloat, _ := createFormatters(cfg.Precision)

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesTable(&buf, sampleSeriesResult(), cfg, fmtFloat, time.Millisecond))
	assert.Contains(t, buf.String(), "median_cpue at all (Jan 2023 - Mar 2023)")
}

func TestWriteJSONResultsForSeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSONResultsForSeries(&buf, sampleSeriesResult(), 2))

	var got schema.SelectedSiteResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, schema.AllSites, got.Site)
	require.Len(t, got.SelectedData, 3)
	assert.InDelta(t, 3.14, *got.SelectedData[2].Value, 1e-9)
	assert.Nil(t, got.SelectedData[1].Value)
	assert.Len(t, got.AllSitesData, 2)
	assert.Contains(t, buf.String(), `"selectedData"`)
}

func TestWriteCSVResultsForSeries(t *testing.T) {
	fmtFloat, _ := createFormatters(2)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, writeCSVResultsForSeries(w, sampleSeriesResult(), fmtFloat))
	w.Flush()

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"site", "metric", "date", "timestamp", "value", "selected"}, records[0])
	assert.Equal(t, []string{"all", "median_cpue", "2023-01-01", "1672531200000", "2.00", "true"}, records[1])
	assert.Equal(t, "", records[2][4], "gaps are empty")
	assert.Equal(t, []string{"wete", "median_cpue", "2023-01-01", "1672531200000", "1.50", "false"}, records[5])
}

func TestPrintSeriesResultParquet(t *testing.T) {
	out := filepath.Join(t.TempDir(), "series.parquet")
	cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: out, Precision: 2}

	require.NoError(t, PrintSeriesResult(sampleSeriesResult(), cfg, time.Millisecond))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPrintSeriesResultParquetNeedsFile(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}
	err := PrintSeriesResult(sampleSeriesResult(), cfg, time.Millisecond)
	assert.ErrorIs(t, err, errParquetFileRequired)
}

func TestPrintSeriesResultCSVFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "series.csv")
	cfg := &contract.Config{Output: schema.CSVOut, OutputFile: out, Precision: 1}

	require.NoError(t, NewOutWriter().WriteSeries(sampleSeriesResult(), cfg, time.Millisecond))
	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "all,median_cpue,2023-03-01,1677628800000,3.1,true")
}
