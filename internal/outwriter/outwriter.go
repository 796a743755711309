// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/internal/parquet"
	"github.com/prelev/prelev/schema"
)

// PrintAggregation outputs an aggregation result, dispatching based on the output format configured.
func PrintAggregation(result *schema.AggregationResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONAggregation(w, result)
		}, "Wrote JSON aggregation"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVAggregation(w, result, fmtFloat)
		}, "Wrote CSV aggregation"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := printParquetAggregation(result, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAggregationText(w, result, cfg, fmtFloat, duration)
		}, "Wrote text aggregation"); err != nil {
			return fmt.Errorf("error writing aggregation table output: %w", err)
		}
	}
	return nil
}

// printParquetAggregation writes one parquet row per output value.
func printParquetAggregation(result *schema.AggregationResult, outputFile string) error {
	if outputFile == "" {
		return fmt.Errorf("parquet output requires an output file")
	}
	if err := parquet.WriteAggregatedValuesParquet(parquet.ConvertAggregationResult(result), outputFile); err != nil {
		return err
	}
	contract.LogInfo("💾 Wrote parquet aggregation to %s", outputFile)
	return nil
}

// PrintParameters outputs the parameter catalog using the configured output format.
func PrintParameters(params []schema.Parameter, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, params)
		}, "Wrote JSON parameters")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVParameters(w, params)
		}, "Wrote CSV parameters")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for parameters")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeParametersText(w, params, cfg)
		}, "Wrote text parameters")
	}
}
