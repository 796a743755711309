package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DocumentShape tells which of the three stored layouts a ValueDocument uses.
type DocumentShape string

// All document shapes.
const (
	EmptyShape           DocumentShape = "empty"
	SubDailyRawShape     DocumentShape = "sub-daily-raw"
	DailyAggregatesShape DocumentShape = "daily-aggregates"
	DailyShape           DocumentShape = "daily"
)

// TimedValue is one raw sub-daily sample.
type TimedValue struct {
	Time   string    `json:"time"`
	Value  NullFloat `json:"value"`
	Remark string    `json:"remark,omitempty"`
}

// DailyValue is the single value of a daily or super-daily document.
type DailyValue struct {
	Value  NullFloat `json:"value"`
	Remark string    `json:"remark,omitempty"`
}

// DailyAggregates are the precomputed reductions of one day of a sub-daily series.
type DailyAggregates struct {
	Sum           *NullFloat `json:"sum,omitempty"`
	Mean          *NullFloat `json:"mean,omitempty"`
	Min           *NullFloat `json:"min,omitempty"`
	Max           *NullFloat `json:"max,omitempty"`
	UniqueRemarks []string   `json:"uniqueRemarks,omitempty"`
}

// Field returns the aggregate matching op. The boolean is false when the
// field is absent; an unknown operator yields an UnknownOperator error.
func (a DailyAggregates) Field(op Operator) (NullFloat, bool, error) {
	var field *NullFloat
	switch op {
	case SumOperator:
		field = a.Sum
	case MeanOperator:
		field = a.Mean
	case MinOperator:
		field = a.Min
	case MaxOperator:
		field = a.Max
	default:
		return NullFloatEmpty(), false, NewUnknownOperatorError(string(op))
	}
	if field == nil {
		return NullFloatEmpty(), false, nil
	}
	return *field, true, nil
}

// ValueDocument is the per-date record of one series.
// Stored JSON uses "values" for both the raw sample array and the daily
// object; decoding picks the right field from the JSON token.
type ValueDocument struct {
	Date            string
	Samples         []TimedValue
	Daily           *DailyValue
	DailyAggregates *DailyAggregates
}

type valueDocumentJSON struct {
	Date            string           `json:"date"`
	Values          json.RawMessage  `json:"values,omitempty"`
	DailyAggregates *DailyAggregates `json:"dailyAggregates,omitempty"`
}

// Shape returns the layout of the document.
func (d ValueDocument) Shape() DocumentShape {
	switch {
	case d.DailyAggregates != nil:
		return DailyAggregatesShape
	case d.Samples != nil:
		return SubDailyRawShape
	case d.Daily != nil:
		return DailyShape
	default:
		return EmptyShape
	}
}

// MarshalJSON encodes the document in its stored layout.
func (d ValueDocument) MarshalJSON() ([]byte, error) {
	out := valueDocumentJSON{Date: d.Date, DailyAggregates: d.DailyAggregates}
	var values any
	switch {
	case d.Samples != nil:
		values = d.Samples
	case d.Daily != nil:
		values = d.Daily
	}
	if values != nil {
		raw, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		out.Values = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes any of the three stored layouts.
func (d *ValueDocument) UnmarshalJSON(data []byte) error {
	var in valueDocumentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*d = ValueDocument{Date: in.Date, DailyAggregates: in.DailyAggregates}

	raw := bytes.TrimSpace(in.Values)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	switch raw[0] {
	case '[':
		samples := []TimedValue{}
		if err := json.Unmarshal(raw, &samples); err != nil {
			return fmt.Errorf("invalid sub-daily values for %s: %w", in.Date, err)
		}
		d.Samples = samples
	case '{':
		var daily DailyValue
		if err := json.Unmarshal(raw, &daily); err != nil {
			return fmt.Errorf("invalid daily value for %s: %w", in.Date, err)
		}
		d.Daily = &daily
	default:
		return fmt.Errorf("invalid values for %s: expected an array or an object", in.Date)
	}
	return nil
}
