package catalog

import (
	"testing"

	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogInvariants(t *testing.T) {
	c := Default()
	require.NotEmpty(t, c.Parameters())

	for _, p := range c.Parameters() {
		for _, ctx := range []schema.OperatorContext{schema.SpatialContext, schema.TemporalContext} {
			t.Run(p.Name+"/"+string(ctx), func(t *testing.T) {
				legal, ok := c.Operators(p.Name, ctx)
				require.True(t, ok)
				for _, op := range legal {
					assert.Contains(t, schema.AllOperators, op)
				}
				if def, ok := c.DefaultOperator(p.Name, ctx); ok {
					assert.Contains(t, legal, def)
				}
			})
		}
		assert.NotEmpty(t, p.TemporalOperators, p.Name)
	}
}

func TestLookups(t *testing.T) {
	c := Default()

	ops, ok := c.Operators("volume prélevé", schema.SpatialContext)
	assert.True(t, ok)
	assert.Equal(t, []schema.Operator{schema.SumOperator}, ops)

	ops, ok = c.Operators("niveau piézométrique", schema.SpatialContext)
	assert.True(t, ok)
	assert.Empty(t, ops)

	def, ok := c.DefaultOperator("niveau piézométrique", schema.SpatialContext)
	assert.False(t, ok)
	assert.Equal(t, schema.NoOperator, def)

	def, ok = c.DefaultOperator("débit prélevé", schema.TemporalContext)
	assert.True(t, ok)
	assert.Equal(t, schema.MeanOperator, def)

	vt, ok := c.ValueType("volume prélevé")
	assert.True(t, ok)
	assert.Equal(t, schema.CumulativeValue, vt)

	_, ok = c.Operators("débit inconnu", schema.TemporalContext)
	assert.False(t, ok)
	_, ok = c.ValueType("débit inconnu")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	c := Default()

	tests := []struct {
		name      string
		parameter string
		op        schema.Operator
		ctx       schema.OperatorContext
		wantErr   error
		message   string
	}{
		{"legal spatial", "débit prélevé", schema.SumOperator, schema.SpatialContext, nil, ""},
		{"legal temporal", "volume prélevé", schema.SumOperator, schema.TemporalContext, nil, ""},
		{"unknown parameter", "débit inconnu", schema.SumOperator, schema.TemporalContext, schema.ErrUnsupportedParameter, ""},
		{"illegal temporal", "débit prélevé", schema.SumOperator, schema.TemporalContext, schema.ErrInvalidOperator, "mean, min, max"},
		{"empty spatial set", "niveau d'eau", schema.MeanOperator, schema.SpatialContext, schema.ErrInvalidOperator, "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.parameter, tt.op, tt.ctx)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestNewRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name   string
		params []schema.Parameter
	}{
		{"missing name", []schema.Parameter{{}}},
		{"duplicate", []schema.Parameter{{Name: "a"}, {Name: "a"}}},
		{"unknown operator", []schema.Parameter{{Name: "a", TemporalOperators: []schema.Operator{"median"}}}},
		{"default outside set", []schema.Parameter{{
			Name:                    "a",
			TemporalOperators:       []schema.Operator{schema.MeanOperator},
			DefaultTemporalOperator: schema.SumOperator,
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.params)
			assert.Error(t, err)
		})
	}
}

func TestCatalogIsImmutable(t *testing.T) {
	params := []schema.Parameter{{Name: "a", TemporalOperators: []schema.Operator{schema.MeanOperator}}}
	c := MustNew(params)
	version := c.Version()

	params[0].TemporalOperators[0] = schema.SumOperator
	ops, _ := c.Operators("a", schema.TemporalContext)
	assert.Equal(t, []schema.Operator{schema.MeanOperator}, ops)

	ops[0] = schema.MaxOperator
	p, ok := c.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, []schema.Operator{schema.MeanOperator}, p.TemporalOperators)
	assert.Equal(t, version, c.Version())
}

func TestVersionTracksContent(t *testing.T) {
	a := MustNew([]schema.Parameter{{Name: "a", TemporalOperators: []schema.Operator{schema.MeanOperator}}})
	b := MustNew([]schema.Parameter{{Name: "a", TemporalOperators: []schema.Operator{schema.MaxOperator}}})
	assert.Len(t, a.Version(), 12)
	assert.NotEqual(t, a.Version(), b.Version())
	assert.Equal(t, []string{"a"}, a.Names())
}
