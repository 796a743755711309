//go:build basic

// Package integration contains end-to-end tests for the prelev binary.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Or, with Docker available: go test -tags database ./integration
package integration

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSQLiteEndToEnd loads the dataset into default SQLite files and aggregates it.
func TestSQLiteEndToEnd(t *testing.T) {
	env := prelevEnv(t, map[string]string{"PRELEV_RUNS_BACKEND": "sqlite"})
	assertMonthlyVolumes(t, env)

	// The second run is served from the cache and still tracked
	assertMonthlyVolumes(t, env)

	out, err := runPrelev(t, env, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, string(out), "Total Runs: 2")

	out, err = runPrelev(t, env, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, string(out), "Total Series: 3")
}

// TestSQLiteReloadRefreshesCachedResults corrects a document after a cached
// aggregation and expects the next aggregation to see the correction.
func TestSQLiteReloadRefreshesCachedResults(t *testing.T) {
	env := prelevEnv(t, nil)
	assertMonthlyVolumes(t, env)

	corrected := filepath.Join(t.TempDir(), "corrected.json")
	require.NoError(t, os.WriteFile(corrected, []byte(`{
  "preleveurs": [{"id": "PR1", "points": ["P1", "P2"]}],
  "series": [
    {"id": "S2", "point": "P2", "parameter": "volume prélevé", "frequency": "1 day", "documents": [
      {"date": "2024-01-01", "values": {"value": 50}}
    ]}
  ]
}`), 0o644))
	_, err := runPrelev(t, env, "load", corrected)
	require.NoError(t, err)

	out, err := runPrelev(t, env, "aggregate",
		"--parameter", "volume prélevé",
		"--frequency", "1 month",
		"--preleveur", "PR1",
		"--spatial-operator", "sum",
		"--temporal-operator", "sum",
		"--output", "json")
	require.NoError(t, err)

	var result schema.AggregationResult
	require.NoError(t, json.Unmarshal(out, &result))
	require.Len(t, result.Values, 2)
	assert.Equal(t, "2024-01", result.Values[0].Period)
	assert.InDelta(t, 80.0, result.Values[0].Value, 1e-9)
}

func TestSQLiteScopes(t *testing.T) {
	env := prelevEnv(t, nil)
	_, err := runPrelev(t, env, "load", datasetPath)
	require.NoError(t, err)

	tests := []struct {
		name    string
		args    []string
		periods []string
		values  []float64
	}{
		{"points", []string{"--points", "P2", "--frequency", "1 year"}, []string{"2024"}, []float64{5}},
		{"attachment", []string{"--attachment", "A1", "--frequency", "1 year"}, []string{"2024"}, []float64{37}},
		{"date window", []string{"--preleveur", "PR1", "--start", "2024-01-02", "--end", "2024-01-31"}, []string{"2024-01-02"}, []float64{20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"aggregate", "--parameter", "volume prélevé", "--no-cache", "--output", "json"}, tt.args...)
			out, err := runPrelev(t, env, args...)
			require.NoError(t, err)

			var result schema.AggregationResult
			require.NoError(t, json.Unmarshal(out, &result))
			var periods []string
			var values []float64
			for _, v := range result.Values {
				periods = append(periods, v.Period)
				values = append(values, v.Value)
			}
			assert.Equal(t, tt.periods, periods)
			assert.Equal(t, tt.values, values)
		})
	}
}

func TestSQLiteCSVAndExport(t *testing.T) {
	env := prelevEnv(t, map[string]string{"PRELEV_RUNS_BACKEND": "sqlite"})
	assertMonthlyVolumes(t, env)

	out, err := runPrelev(t, env, "aggregate", "--parameter", "volume prélevé", "--frequency", "1 month",
		"--points", "P1,P2", "--output", "csv", "--no-cache")
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"period", "value", "remarks"}, rows[0])
	assert.Equal(t, "2024-01", rows[1][0])

	prefix := filepath.Join(t.TempDir(), "prelev")
	_, err = runPrelev(t, env, "runs", "export", "--output-file", prefix)
	require.NoError(t, err)
	assert.FileExists(t, prefix+".runs.parquet")
	assert.FileExists(t, prefix+".run_values.parquet")
}

func TestAggregateRejectsInvalidRequests(t *testing.T) {
	env := prelevEnv(t, nil)
	_, err := runPrelev(t, env, "load", datasetPath)
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown parameter", []string{"--parameter", "débit inconnu", "--points", "P1"}},
		{"temporal sum of a flow", []string{"--parameter", "débit prélevé", "--points", "P2", "--temporal-operator", "sum"}},
		{"two scopes", []string{"--parameter", "volume prélevé", "--points", "P1", "--preleveur", "PR1", "--attachment", "A1"}},
		{"bad date", []string{"--parameter", "volume prélevé", "--points", "P1", "--start", "2024-02-30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runPrelev(t, env, append([]string{"aggregate", "--no-cache"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}
