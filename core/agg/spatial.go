package agg

import (
	"github.com/prelev/prelev/schema"
)

// Combine merges, per period, the values coming from several series.
//
// With a spatial operator every group is reduced with it. Without one, a
// single value passes through unchanged and several values are merged with
// the temporal operator; the periods merged that way are returned as fallback.
// Groups that reduce to nothing are omitted. Output follows the index order.
func Combine(index *PeriodIndex, spatial, temporal schema.Operator, remarkLimit int) ([]schema.ExtractedValue, []string, error) {
	out := make([]schema.ExtractedValue, 0, index.Len())
	var fallback []string

	for _, period := range index.Keys() {
		items := index.Get(period)
		op := spatial
		if op == schema.NoOperator {
			if len(items) == 1 {
				out = append(out, items[0])
				continue
			}
			op = temporal
			fallback = append(fallback, period)
		}

		v, ok, err := reduceGroup(period, items, op, remarkLimit)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, fallback, nil
}

// FoldByPeriod reduces values sharing a period with op. Lone values pass
// through unchanged. Output is sorted ascending by period.
func FoldByPeriod(values []schema.ExtractedValue, op schema.Operator, remarkLimit int) ([]schema.ExtractedValue, error) {
	index := NewPeriodIndex()
	index.Add(values...)

	out := make([]schema.ExtractedValue, 0, index.Len())
	for _, period := range index.Keys() {
		items := index.Get(period)
		if len(items) == 1 {
			out = append(out, items[0])
			continue
		}
		v, ok, err := reduceGroup(period, items, op, remarkLimit)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func reduceGroup(period string, items []schema.ExtractedValue, op schema.Operator, remarkLimit int) (schema.ExtractedValue, bool, error) {
	samples := make([]Sample, len(items))
	for i, item := range items {
		samples[i] = Sample{Value: schema.NewNullFloat(item.Value), Remark: item.Remark, Remarks: item.Remarks}
	}
	r, err := ReduceWithLimit(samples, op, remarkLimit)
	if err != nil || r == nil {
		return schema.ExtractedValue{}, false, err
	}
	return schema.ExtractedValue{Period: period, Value: r.Value, Remarks: r.Remarks}, true, nil
}
