package agg

import (
	"github.com/prelev/prelev/schema"
)

// ExtractContext tells Extract how the document's series is recorded and
// what the caller asked for.
type ExtractContext struct {
	IsSubDaily       bool
	UseAggregates    bool
	Frequency        schema.Frequency
	TemporalOperator schema.Operator
}

// Extract normalizes one value document into period-keyed values.
//
// Raw sub-daily samples are bucketed when the requested frequency is itself
// sub-daily, otherwise they are keyed by their date and keep their time of day
// in ExtractedValue.Time. Pre-aggregated documents yield the aggregate matching
// the temporal operator. Daily and super-daily documents yield their value at
// their date. Values that are not finite numbers are dropped.
func Extract(doc schema.ValueDocument, ctx ExtractContext) ([]schema.ExtractedValue, error) {
	switch {
	case UsesAggregates(doc, ctx):
		return extractAggregates(doc, ctx.TemporalOperator)
	case ctx.IsSubDaily:
		return extractSamples(doc, ctx.Frequency), nil
	default:
		return extractDaily(doc), nil
	}
}

// UsesAggregates reports whether Extract reads doc from its daily aggregates
// rather than from its samples or daily value.
func UsesAggregates(doc schema.ValueDocument, ctx ExtractContext) bool {
	return ctx.IsSubDaily && ctx.UseAggregates && doc.DailyAggregates != nil
}

func extractSamples(doc schema.ValueDocument, freq schema.Frequency) []schema.ExtractedValue {
	out := make([]schema.ExtractedValue, 0, len(doc.Samples))
	for _, s := range doc.Samples {
		if !s.Value.Valid() {
			continue
		}
		v := schema.ExtractedValue{
			Period: doc.Date,
			Value:  s.Value.Float64(),
			Remark: s.Remark,
		}
		if freq.IsSubDaily() {
			v.Period = SubDailyPeriod(doc.Date, s.Time, freq)
		} else {
			v.Time = s.Time
		}
		out = append(out, v)
	}
	return out
}

func extractAggregates(doc schema.ValueDocument, op schema.Operator) ([]schema.ExtractedValue, error) {
	field, ok, err := doc.DailyAggregates.Field(op)
	if err != nil {
		return nil, err
	}
	if !ok || !field.Valid() {
		return nil, nil
	}
	v := schema.ExtractedValue{Period: doc.Date, Value: field.Float64()}
	if len(doc.DailyAggregates.UniqueRemarks) > 0 {
		v.Remarks = append([]string(nil), doc.DailyAggregates.UniqueRemarks...)
	}
	return []schema.ExtractedValue{v}, nil
}

func extractDaily(doc schema.ValueDocument) []schema.ExtractedValue {
	if doc.Daily == nil || !doc.Daily.Value.Valid() {
		return nil
	}
	return []schema.ExtractedValue{{
		Period: doc.Date,
		Value:  doc.Daily.Value.Float64(),
		Remark: doc.Daily.Remark,
	}}
}
