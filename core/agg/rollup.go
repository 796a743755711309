package agg

import (
	"github.com/prelev/prelev/schema"
)

// Rollup re-aggregates daily values into the buckets of freq using op.
// A daily frequency returns values unchanged, as does a sub-daily one since
// those values are already bucketed.
func Rollup(values []schema.ExtractedValue, freq schema.Frequency, op schema.Operator, remarkLimit int) ([]schema.ExtractedValue, error) {
	if freq == schema.Freq1Day || freq.IsSubDaily() {
		return values, nil
	}

	index := NewPeriodIndex()
	for _, v := range values {
		key, err := PeriodKey(v.Period, freq)
		if err != nil {
			return nil, err
		}
		v.Period = key
		index.Add(v)
	}

	out := make([]schema.ExtractedValue, 0, index.Len())
	for _, key := range index.Keys() {
		v, ok, err := reduceGroup(key, index.Get(key), op, remarkLimit)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}
