// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/prelev/prelev/schema"
)

// SeriesResolver finds the series selected by a scope.
// This allows the pipeline to be tested without a real data store.
type SeriesResolver interface {
	// Resolve returns the descriptors of every series matching the query scope.
	// Implementations may pre-filter by parameter and date range.
	Resolve(ctx context.Context, query schema.SeriesQuery) ([]schema.SeriesDescriptor, error)
}

// ValueStore reads the value documents of one series.
type ValueStore interface {
	// Fetch returns the documents of a series ordered ascending by date.
	// With UseAggregates set, sub-daily series may be served from their daily aggregates.
	Fetch(ctx context.Context, seriesID string, opts schema.FetchOptions) ([]schema.ValueDocument, error)
}

// ValueWriter stores the value documents of one series.
type ValueWriter interface {
	PutDocuments(ctx context.Context, seriesID string, docs []schema.ValueDocument) error
}

// DataVersioner is implemented by stores that can tell when their data
// changed. The version is part of every result cache key.
type DataVersioner interface {
	DataVersion(ctx context.Context) (string, error)
}

// StoreManager defines the interface for managing cache and run stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetCacheStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cached aggregation results.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking aggregation runs and their output.
type RunStore interface {
	// BeginRun records a new run and returns its ID
	BeginRun(runUUID string, startTime time.Time, req schema.AggregationRequest) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, seriesCount, valuesCount int) error

	// FailRun closes a run that ended with an error
	FailRun(runID int64, endTime time.Time, runErr error) error

	// RecordValues stores the output values of a run
	RecordValues(runID int64, values []schema.ExtractedValue) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns retrieves all runs ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllRunValues retrieves all stored output values ordered by run and period
	GetAllRunValues() ([]schema.RunValueRecord, error)

	// Close closes the underlying connection
	Close() error
}
