package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prelev/prelev/core"
	"github.com/prelev/prelev/core/catalog"
	"github.com/prelev/prelev/internal/contract"
	mcp_internal "github.com/prelev/prelev/internal/mcp"
	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestServer() (*contract.MockSeriesResolver, *contract.MockValueStore, func(name string, args map[string]any) *mcp.CallToolResult) {
	resolver := &contract.MockSeriesResolver{}
	values := &contract.MockValueStore{}
	p := core.NewPipeline(catalog.Default(), resolver, values)
	baseCfg := &contract.Config{Workers: 2, Frequency: schema.Freq1Day}

	// No store manager: results are neither cached nor tracked
	s := mcp_internal.NewMCPServer(baseCfg, p, nil)

	call := func(name string, args map[string]any) *mcp.CallToolResult {
		tool := s.GetTool(name)
		if tool == nil {
			return nil
		}
		req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
		res, err := tool.Handler(context.Background(), req)
		if err != nil {
			return mcp.NewToolResultError("raw error: " + err.Error())
		}
		return res
	}
	return resolver, values, call
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	return res.Content[0].(mcp.TextContent).Text
}

func TestListParameters(t *testing.T) {
	_, _, call := newTestServer()

	res := call("list_parameters", nil)
	require.False(t, res.IsError)

	var params []schema.Parameter
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &params))
	assert.Len(t, params, len(catalog.Default().Parameters()))
	assert.Contains(t, catalog.Default().Names(), params[0].Name)
}

func TestAggregateSeries(t *testing.T) {
	resolver, values, call := newTestServer()

	resolver.On("Resolve", mock.Anything, schema.SeriesQuery{
		Scope:     schema.Scope{PointIDs: []string{"P1", "P2"}},
		Parameter: "volume prélevé",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
	}).Return([]schema.SeriesDescriptor{
		{ID: "S1", Point: "P1", Parameter: "volume prélevé", Frequency: schema.Freq1Day},
		{ID: "S2", Point: "P2", Parameter: "volume prélevé", Frequency: schema.Freq1Day},
	}, nil)
	values.On("Fetch", mock.Anything, "S1", mock.Anything).Return([]schema.ValueDocument{
		{Date: "2024-01-05", Daily: &schema.DailyValue{Value: schema.NewNullFloat(10)}},
	}, nil)
	values.On("Fetch", mock.Anything, "S2", mock.Anything).Return([]schema.ValueDocument{
		{Date: "2024-01-05", Daily: &schema.DailyValue{Value: schema.NewNullFloat(5)}},
		{Date: "2024-02-05", Daily: &schema.DailyValue{Value: schema.NewNullFloat(99)}},
	}, nil)

	res := call("aggregate_series", map[string]any{
		"parameter":  "volume prélevé",
		"frequency":  "1 month",
		"start_date": "2024-01-01",
		"end_date":   "2024-01-31",
		"points":     "P1,P2",
	})
	require.False(t, res.IsError, text(t, res))

	var result schema.AggregationResult
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &result))
	assert.Equal(t, schema.Freq1Month, result.Metadata.Frequency)
	assert.Equal(t, schema.SumOperator, result.Metadata.SpatialOperator)
	assert.NotEmpty(t, result.Metadata.RunID)
	assert.Equal(t, []schema.ExtractedValue{{Period: "2024-01", Value: 15}}, result.Values)
}

func TestAggregateSeriesErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{
			name:    "unknown operator",
			args:    map[string]any{"parameter": "volume prélevé", "points": "P1", "temporal_operator": "median"},
			wantErr: "invalid aggregation parameters",
		},
		{
			name:    "invalid date",
			args:    map[string]any{"parameter": "volume prélevé", "points": "P1", "start_date": "01/01/2024"},
			wantErr: "invalid date",
		},
		{
			name:    "unsupported parameter",
			args:    map[string]any{"parameter": "débit d'étiage", "points": "P1"},
			wantErr: "aggregation failed",
		},
		{
			name:    "illegal operator",
			args:    map[string]any{"parameter": "volume prélevé", "points": "P1", "temporal_operator": "mean"},
			wantErr: "sum",
		},
		{
			name:    "missing scope",
			args:    map[string]any{"parameter": "volume prélevé"},
			wantErr: "aggregation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, _, call := newTestServer()

			res := call("aggregate_series", tt.args)
			require.NotNil(t, res, "Tool aggregate_series should exist")
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, text(t, res), tt.wantErr)
			resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		})
	}
}
