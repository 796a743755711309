package iocache

import (
	"errors"
	"fmt"

	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/internal/parquet"
)

// ExportRuns writes every run and its output values to two Parquet files
// derived from outputFile, and returns their paths.
func ExportRuns(store contract.RunStore, outputFile string) (runsFile, valuesFile string, err error) {
	if outputFile == "" {
		return "", "", errors.New("--output-file is required for export command")
	}
	if store == nil {
		return "", "", errors.New("run tracking is not configured. Set --runs-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return "", "", fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return "", "", errors.New("no run data found to export")
	}

	runs, err := store.GetAllRuns()
	if err != nil {
		return "", "", fmt.Errorf("failed to retrieve runs: %w", err)
	}
	values, err := store.GetAllRunValues()
	if err != nil {
		return "", "", fmt.Errorf("failed to retrieve run values: %w", err)
	}

	runsFile = outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return "", "", fmt.Errorf("failed to write runs: %w", err)
	}
	valuesFile = outputFile + ".run_values.parquet"
	if err := parquet.WriteRunValuesParquet(parquet.ConvertRunValueRecords(values), valuesFile); err != nil {
		return "", "", fmt.Errorf("failed to write run values: %w", err)
	}
	return runsFile, valuesFile, nil
}
