package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/internal/parquet"
)

// ExecuteHistoryExport writes the recorded query runs and series points to Parquet files
// named after outputFile.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history tracking is disabled")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no query history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total query runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total series points: %d\n", status.TableSizes[seriesPointsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve query runs: %w", err)
	}
	points, err := store.GetAllPoints()
	if err != nil {
		return fmt.Errorf("failed to retrieve series points: %w", err)
	}

	parquetRuns := parquet.ConvertHistoryRunRecords(runs)
	parquetPoints := parquet.ConvertHistoryPointRecords(points)

	runsFile := outputFile + ".query_runs.parquet"
	if err := parquet.WriteQueryRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write query runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d query runs to: %s\n", len(parquetRuns), runsFile)

	pointsFile := outputFile + ".series_points.parquet"
	if err := parquet.WriteSeriesPointsParquet(parquetPoints, pointsFile); err != nil {
		return fmt.Errorf("failed to write series points: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d series points to: %s\n", len(parquetPoints), pointsFile)
	return nil
}
