// Package parquet provides data structures and functions for exporting
// aggregation results and run history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/prelev/prelev/schema"
)

// Run represents a single aggregation run with its request.
// This struct maps to the prelev_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the identifier reported in result metadata
	RunUUID string `parquet:"run_uuid,snappy"`

	// Parameter is the aggregated physical parameter
	Parameter string `parquet:"parameter,snappy"`

	// SpatialOperator is null for parameters that cannot be combined across points
	SpatialOperator *string `parquet:"spatial_operator,optional,snappy"`

	// TemporalOperator is the operator used along time
	TemporalOperator string `parquet:"temporal_operator,snappy"`

	// Frequency is the requested aggregation frequency
	Frequency string `parquet:"frequency,snappy"`

	// ScopeJSON contains the JSON-encoded scope of the request
	ScopeJSON string `parquet:"scope_json,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// SeriesCount is the number of series that took part in the run
	SeriesCount int32 `parquet:"series_count,snappy"`

	// ValuesCount is the number of output values
	ValuesCount int32 `parquet:"values_count,snappy"`

	// ErrorMessage is set for runs that failed
	ErrorMessage *string `parquet:"error_message,optional,snappy"`
}

// RunValue is one output value of a run.
// This struct maps to the prelev_run_values database table.
type RunValue struct {
	RunID   int64   `parquet:"run_id,snappy"`
	Period  string  `parquet:"period,snappy"`
	Value   float64 `parquet:"value,snappy"`
	Remarks *string `parquet:"remarks,optional,snappy"`
}

// AggregatedValue is one row of an aggregation result, with the metadata
// needed to read it on its own.
type AggregatedValue struct {
	Parameter        string  `parquet:"parameter,snappy"`
	Unit             string  `parquet:"unit,snappy"`
	SpatialOperator  *string `parquet:"spatial_operator,optional,snappy"`
	TemporalOperator string  `parquet:"temporal_operator,snappy"`
	Frequency        string  `parquet:"frequency,snappy"`
	Period           string  `parquet:"period,snappy"`
	Value            float64 `parquet:"value,snappy"`
	Remarks          *string `parquet:"remarks,optional,snappy"`
}

// remarksSeparator joins remarks in a single column.
const remarksSeparator = "; "

// writeParquet writes rows to outputPath with a schema inferred from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRunValuesParquet writes run values to a Parquet file.
func WriteRunValuesParquet(data []RunValue, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteAggregatedValuesParquet writes the rows of an aggregation result to a Parquet file.
func WriteAggregatedValuesParquet(data []AggregatedValue, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertRunRecords converts stored runs to Parquet rows.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		var duration *int32
		if record.RunDurationMs != nil {
			d := int32(*record.RunDurationMs)
			duration = &d
		}
		result[i] = Run{
			RunID:            record.RunID,
			RunUUID:          record.RunUUID,
			Parameter:        record.Parameter,
			SpatialOperator:  record.SpatialOperator,
			TemporalOperator: record.TemporalOperator,
			Frequency:        record.Frequency,
			ScopeJSON:        record.ScopeJSON,
			StartTime:        record.StartTime,
			EndTime:          record.EndTime,
			RunDurationMs:    duration,
			SeriesCount:      int32(record.SeriesCount),
			ValuesCount:      int32(record.ValuesCount),
			ErrorMessage:     record.ErrorMessage,
		}
	}
	return result
}

// ConvertRunValueRecords converts stored run values to Parquet rows.
func ConvertRunValueRecords(records []schema.RunValueRecord) []RunValue {
	result := make([]RunValue, len(records))
	for i, record := range records {
		result[i] = RunValue(record)
	}
	return result
}

// ConvertAggregationResult flattens a result into one row per value.
func ConvertAggregationResult(res *schema.AggregationResult) []AggregatedValue {
	md := res.Metadata
	var spatial *string
	if md.SpatialOperator != schema.NoOperator {
		op := string(md.SpatialOperator)
		spatial = &op
	}

	result := make([]AggregatedValue, len(res.Values))
	for i, v := range res.Values {
		var remarks *string
		if len(v.Remarks) > 0 {
			joined := strings.Join(v.Remarks, remarksSeparator)
			remarks = &joined
		} else if v.Remark != "" {
			remark := v.Remark
			remarks = &remark
		}
		result[i] = AggregatedValue{
			Parameter:        md.Parameter,
			Unit:             md.Unit,
			SpatialOperator:  spatial,
			TemporalOperator: string(md.TemporalOperator),
			Frequency:        string(md.Frequency),
			Period:           v.Period,
			Value:            v.Value,
			Remarks:          remarks,
		}
	}
	return result
}
