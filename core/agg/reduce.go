// Package agg has the reduction, extraction and bucketing logic used to
// combine measurement series across points and over time.
package agg

import (
	"github.com/prelev/prelev/schema"
)

// DefaultRemarkLimit caps the remarks attached to one reduced value.
const DefaultRemarkLimit = 10

// Sample is the homogeneous reducer input. An invalid Value marks a
// remark-only sample: it carries remarks but never contributes a number.
type Sample struct {
	Value   schema.NullFloat
	Remark  string
	Remarks []string
}

// Reduction is the result of reducing a set of samples.
type Reduction struct {
	Value   float64
	Remarks []string
}

// Normalize turns heterogeneous reducer inputs into samples.
// Numbers become samples, value-bearing records contribute their value and
// remarks, and everything else (nil, strings, unknown types) is dropped.
// Strings are never coerced to numbers.
func Normalize(items ...any) []Sample {
	samples := make([]Sample, 0, len(items))
	for _, item := range items {
		if s, ok := normalizeOne(item); ok {
			samples = append(samples, s)
		}
	}
	return samples
}

func normalizeOne(item any) (Sample, bool) {
	switch v := item.(type) {
	case Sample:
		return v, true
	case float64:
		return Sample{Value: schema.NewNullFloat(v)}, true
	case float32:
		return Sample{Value: schema.NewNullFloat(float64(v))}, true
	case int:
		return Sample{Value: schema.NewNullFloat(float64(v))}, true
	case int64:
		return Sample{Value: schema.NewNullFloat(float64(v))}, true
	case schema.NullFloat:
		return Sample{Value: v}, true
	case *schema.NullFloat:
		if v == nil {
			return Sample{}, false
		}
		return Sample{Value: *v}, true
	case schema.ExtractedValue:
		return Sample{Value: schema.NewNullFloat(v.Value), Remark: v.Remark, Remarks: v.Remarks}, true
	case schema.TimedValue:
		return Sample{Value: v.Value, Remark: v.Remark}, true
	case schema.DailyValue:
		return Sample{Value: v.Value, Remark: v.Remark}, true
	case map[string]any:
		return normalizeRecord(v), true
	default:
		return Sample{}, false
	}
}

// normalizeRecord reads a decoded JSON object of the form {value, remark?, remarks?}.
func normalizeRecord(rec map[string]any) Sample {
	s := Sample{Value: schema.NullFloatEmpty()}
	switch n := rec["value"].(type) {
	case float64:
		s.Value = schema.NewNullFloat(n)
	case int:
		s.Value = schema.NewNullFloat(float64(n))
	}
	if r, ok := rec["remark"].(string); ok {
		s.Remark = r
	}
	switch rs := rec["remarks"].(type) {
	case []string:
		s.Remarks = rs
	case []any:
		for _, r := range rs {
			if str, ok := r.(string); ok {
				s.Remarks = append(s.Remarks, str)
			}
		}
	}
	return s
}

// Reduce applies op over samples with the default remark limit.
func Reduce(samples []Sample, op schema.Operator) (*Reduction, error) {
	return ReduceWithLimit(samples, op, DefaultRemarkLimit)
}

// ReduceWithLimit applies op over the valid values of samples. It returns nil
// when no valid value remains. Remarks of every sample are collected,
// deduplicated and capped at limit.
func ReduceWithLimit(samples []Sample, op schema.Operator, limit int) (*Reduction, error) {
	if !op.Valid() {
		return nil, schema.NewUnknownOperatorError(string(op))
	}

	var (
		count    int
		total    float64
		min, max float64
		remarks  []string
	)
	for _, s := range samples {
		if s.Remark != "" {
			remarks = append(remarks, s.Remark)
		}
		remarks = append(remarks, s.Remarks...)
		if !s.Value.Valid() {
			continue
		}
		v := s.Value.Float64()
		if count == 0 || v < min {
			min = v
		}
		if count == 0 || v > max {
			max = v
		}
		total += v
		count++
	}
	if count == 0 {
		return nil, nil
	}

	r := &Reduction{}
	switch op {
	case schema.SumOperator:
		r.Value = total
	case schema.MeanOperator:
		r.Value = total / float64(count)
	case schema.MinOperator:
		r.Value = min
	case schema.MaxOperator:
		r.Value = max
	}
	if deduped := DedupeRemarks(remarks, limit); len(deduped) > 0 {
		r.Remarks = deduped
	}
	return r, nil
}

// DedupeRemarks removes empty and repeated remarks, keeping first-seen order,
// and returns at most limit of them. A non-positive limit yields an empty slice.
func DedupeRemarks(remarks []string, limit int) []string {
	out := []string{}
	if limit <= 0 {
		return out
	}
	seen := make(map[string]bool, len(remarks))
	for _, r := range remarks {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}
