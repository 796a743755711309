package schema

import (
	"fmt"
	"strings"
)

// Custom string types for type safety.
type (
	// Operator is one of the four reducers that may combine values.
	Operator string

	// OperatorContext tells whether an operator combines points (spatial)
	// or time steps (temporal).
	OperatorContext string

	// ValueType describes how a physical quantity behaves over time.
	ValueType string

	// Frequency is a recording or aggregation granularity.
	Frequency string

	// FrequencyClass partitions frequencies around the day.
	FrequencyClass string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for a SQL store.
	DatabaseBackend string

	// ValuesBackend selects where value documents are read from.
	ValuesBackend string
)

// All operators supported. NoOperator stands for "no legal operator".
const (
	NoOperator   Operator = ""
	SumOperator  Operator = "sum"
	MeanOperator Operator = "mean"
	MinOperator  Operator = "min"
	MaxOperator  Operator = "max"
)

// Operator contexts.
const (
	SpatialContext  OperatorContext = "spatial" // default
	TemporalContext OperatorContext = "temporal"
)

// Value types.
const (
	CumulativeValue    ValueType = "cumulative"
	InstantaneousValue ValueType = "instantaneous"
)

// All frequencies supported, finest first.
const (
	Freq15Minutes Frequency = "15 minutes"
	Freq1Hour     Frequency = "1 hour"
	Freq6Hours    Frequency = "6 hours"
	Freq1Day      Frequency = "1 day" // default
	Freq1Month    Frequency = "1 month"
	Freq1Quarter  Frequency = "1 quarter"
	Freq1Year     Frequency = "1 year"
)

// Frequency classes.
const (
	SubDaily   FrequencyClass = "sub-daily"
	Daily      FrequencyClass = "daily"
	SuperDaily FrequencyClass = "super-daily"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All value backends supported.
const (
	SQLValues ValuesBackend = "sql" // default
	S3Values  ValuesBackend = "s3"
)

// AllOperators lists operators in their canonical order.
var AllOperators = []Operator{SumOperator, MeanOperator, MinOperator, MaxOperator}

// AllFrequencies lists frequencies from finest to coarsest.
var AllFrequencies = []Frequency{Freq15Minutes, Freq1Hour, Freq6Hours, Freq1Day, Freq1Month, Freq1Quarter, Freq1Year}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidValuesBackends lists all valid value backends.
var ValidValuesBackends = map[ValuesBackend]struct{}{
	SQLValues: {},
	S3Values:  {},
}

// ParseOperator turns a user token into an Operator.
// Unknown tokens are rejected here so that reducers only ever see the closed set.
func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.ToLower(strings.TrimSpace(s)))
	if op.Valid() {
		return op, nil
	}
	return NoOperator, NewUnknownOperatorError(s)
}

// Valid reports whether the operator is one of sum, mean, min or max.
func (o Operator) Valid() bool {
	switch o {
	case SumOperator, MeanOperator, MinOperator, MaxOperator:
		return true
	}
	return false
}

// ParseFrequency normalizes and validates a frequency token.
// An empty token yields the default daily frequency.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if s == "" {
		return Freq1Day, nil
	}
	f := Frequency(s)
	if f.Valid() {
		return f, nil
	}
	return "", NewInvalidRequestError(
		fmt.Sprintf("invalid frequency %q. must be one of: %s", s, FormatFrequencies(AllFrequencies)))
}

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	return f.Class() != ""
}

// Class returns the class of the frequency, or "" when unknown.
func (f Frequency) Class() FrequencyClass {
	switch f {
	case Freq15Minutes, Freq1Hour, Freq6Hours:
		return SubDaily
	case Freq1Day:
		return Daily
	case Freq1Month, Freq1Quarter, Freq1Year:
		return SuperDaily
	default:
		return ""
	}
}

// IsSubDaily reports whether f is finer than one day.
func (f Frequency) IsSubDaily() bool { return f.Class() == SubDaily }

// IsSuperDaily reports whether f is coarser than one day.
func (f Frequency) IsSuperDaily() bool { return f.Class() == SuperDaily }

// Rank orders frequencies from finest (0) to coarsest. Unknown frequencies rank -1.
func (f Frequency) Rank() int {
	for i, known := range AllFrequencies {
		if f == known {
			return i
		}
	}
	return -1
}
