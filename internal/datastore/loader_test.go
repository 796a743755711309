package datastore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) PutDocuments(context.Context, string, []schema.ValueDocument) error {
	return errors.New("disk full")
}

func TestLoadIntoSQLStore(t *testing.T) {
	store := newTestSQLStore(t)
	ctx := context.Background()

	ds, err := ReadDataset(strings.NewReader(sampleDataset))
	require.NoError(t, err)

	stats, err := Load(ctx, ds, store, store)
	require.NoError(t, err)
	assert.Equal(t, LoadStats{Preleveurs: 1, Series: 2, Documents: 3, Aggregated: 2}, stats)

	series, err := store.Resolve(ctx, schema.SeriesQuery{
		Scope:     schema.Scope{PreleveurID: "PR1"},
		Parameter: "débit prélevé",
	})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2024-01-15", series[0].MinDate)
	assert.Equal(t, "2024-01-16", series[0].MaxDate)
	assert.Equal(t, []string{"2024-01-15"}, series[0].IntegratedDays)

	docs, err := store.Fetch(ctx, "S1", schema.FetchOptions{UseAggregates: true})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 30.0, docs[0].DailyAggregates.Sum.Float64())
	assert.Equal(t, 4.0, docs[1].DailyAggregates.Max.Float64())

	docs, err = store.Fetch(ctx, "S2", schema.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 12.5, docs[0].Daily.Value.Float64())
}

func TestLoadAdvancesDataVersion(t *testing.T) {
	store := newTestSQLStore(t)
	ctx := context.Background()
	ds, err := ReadDataset(strings.NewReader(sampleDataset))
	require.NoError(t, err)

	before, err := store.DataVersion(ctx)
	require.NoError(t, err)

	_, err = Load(ctx, ds, store, store)
	require.NoError(t, err)
	afterFirst, err := store.DataVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, afterFirst)

	// Reloading the same documents still counts as a change
	_, err = Load(ctx, ds, store, store)
	require.NoError(t, err)
	afterSecond, err := store.DataVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, afterFirst, afterSecond)

	// A failed load may have written part of the dataset
	_, err = Load(ctx, ds, store, failingWriter{})
	require.Error(t, err)
	afterFailure, err := store.DataVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, afterSecond, afterFailure)
}

func TestLoadStopsOnWriterError(t *testing.T) {
	store := newTestSQLStore(t)
	ds, err := ReadDataset(strings.NewReader(sampleDataset))
	require.NoError(t, err)

	stats, err := Load(context.Background(), ds, store, failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "documents of series S1")
	assert.Equal(t, 1, stats.Preleveurs)
	assert.Equal(t, 0, stats.Series)
}

func TestLoadRejectsInvalidDataset(t *testing.T) {
	store := newTestSQLStore(t)
	ds := &Dataset{Series: []SeriesRecord{seriesRecord("", "P1", "x", schema.Freq1Day, "", "")}}

	_, err := Load(context.Background(), ds, store, store)
	require.Error(t, err)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalSeries)

	version, err := store.DataVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0", version)
}

func TestLoadCanceled(t *testing.T) {
	store := newTestSQLStore(t)
	ds, err := ReadDataset(strings.NewReader(sampleDataset))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Load(ctx, ds, store, store)
	assert.ErrorIs(t, err, context.Canceled)
}
