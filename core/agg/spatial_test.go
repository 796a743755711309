package agg

import (
	"testing"

	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodIndexKeepsKeysSorted(t *testing.T) {
	index := NewPeriodIndex()
	index.Add(
		schema.ExtractedValue{Period: "2024-01-03", Value: 3},
		schema.ExtractedValue{Period: "2024-01-01", Value: 1},
		schema.ExtractedValue{Period: "2024-01-02", Value: 2},
		schema.ExtractedValue{Period: "2024-01-01", Value: 4},
	)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, index.Keys())
	assert.Equal(t, 3, index.Len())
	assert.Len(t, index.Get("2024-01-01"), 2)
	assert.Nil(t, index.Get("2024-01-04"))
}

func TestCombine(t *testing.T) {
	index := NewPeriodIndex()
	index.Add(
		schema.ExtractedValue{Period: "2024-01-02", Value: 5, Remark: "b"},
		schema.ExtractedValue{Period: "2024-01-01", Value: 10, Remark: "a"},
		schema.ExtractedValue{Period: "2024-01-02", Value: 7, Remark: "c"},
	)

	t.Run("spatial operator", func(t *testing.T) {
		values, fallback, err := Combine(index, schema.SumOperator, schema.MeanOperator, DefaultRemarkLimit)
		require.NoError(t, err)
		assert.Empty(t, fallback)
		assert.Equal(t, []schema.ExtractedValue{
			{Period: "2024-01-01", Value: 10, Remarks: []string{"a"}},
			{Period: "2024-01-02", Value: 12, Remarks: []string{"b", "c"}},
		}, values)
	})

	t.Run("no spatial operator falls back to temporal", func(t *testing.T) {
		values, fallback, err := Combine(index, schema.NoOperator, schema.MaxOperator, DefaultRemarkLimit)
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01-02"}, fallback)
		assert.Equal(t, []schema.ExtractedValue{
			{Period: "2024-01-01", Value: 10, Remark: "a"},
			{Period: "2024-01-02", Value: 7, Remarks: []string{"b", "c"}},
		}, values)
	})

	t.Run("unknown operator", func(t *testing.T) {
		_, _, err := Combine(index, schema.Operator("avg"), schema.MeanOperator, DefaultRemarkLimit)
		assert.ErrorIs(t, err, schema.ErrUnknownOperator)
	})
}

func TestScenarioSubDailyFlowSummedThenAveraged(t *testing.T) {
	ctx := ExtractContext{IsSubDaily: true, Frequency: schema.Freq1Day, TemporalOperator: schema.MeanOperator}
	docs := []schema.ValueDocument{
		{Date: "2024-01-15", Samples: []schema.TimedValue{
			{Time: "10:00", Value: schema.NewNullFloat(10)},
			{Time: "11:00", Value: schema.NewNullFloat(15)},
		}},
		{Date: "2024-01-15", Samples: []schema.TimedValue{
			{Time: "10:00", Value: schema.NewNullFloat(5)},
			{Time: "11:00", Value: schema.NewNullFloat(8)},
		}},
	}

	index := NewPeriodIndex()
	for _, doc := range docs {
		values, err := Extract(doc, ctx)
		require.NoError(t, err)
		for _, v := range values {
			v.Period = v.Period + " " + v.Time
			index.Add(v)
		}
	}

	spatial, _, err := Combine(index, schema.SumOperator, schema.MeanOperator, DefaultRemarkLimit)
	require.NoError(t, err)
	require.Len(t, spatial, 2)
	assert.Equal(t, 15.0, spatial[0].Value)
	assert.Equal(t, 23.0, spatial[1].Value)

	for i := range spatial {
		spatial[i].Period = spatial[i].Period[:len("2024-01-15")]
	}
	daily, err := FoldByPeriod(spatial, schema.MeanOperator, DefaultRemarkLimit)
	require.NoError(t, err)
	assert.Equal(t, []schema.ExtractedValue{{Period: "2024-01-15", Value: 19}}, daily)
}

func TestFoldByPeriod(t *testing.T) {
	values := []schema.ExtractedValue{
		{Period: "2024-01-02 10:00", Value: 4},
		{Period: "2024-01-01 10:00", Value: 1, Remark: "seul"},
		{Period: "2024-01-02 10:00", Value: 2},
	}

	folded, err := FoldByPeriod(values, schema.MinOperator, DefaultRemarkLimit)
	require.NoError(t, err)
	assert.Equal(t, []schema.ExtractedValue{
		{Period: "2024-01-01 10:00", Value: 1, Remark: "seul"},
		{Period: "2024-01-02 10:00", Value: 2},
	}, folded)
}
