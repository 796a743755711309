// Package core has the aggregation pipeline and the entry points that wire
// it to the result cache, run tracking and output.
package core

import (
	"context"
	"time"

	"github.com/prelev/prelev/core/catalog"
	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/internal/outwriter"
	"github.com/prelev/prelev/schema"
)

// RunAggregate runs the configured request through the result cache and
// records it in run tracking when a run store is configured.
// Cache and tracking failures never fail the aggregation.
func RunAggregate(ctx context.Context, cfg *contract.Config, p *Pipeline, mgr contract.StoreManager) (*schema.AggregationResult, error) {
	req := cfg.Request()

	var cache contract.CacheStore
	var runs contract.RunStore
	if mgr != nil {
		runs = mgr.GetRunStore()
		if !cfg.NoCache {
			cache = mgr.GetCacheStore()
		}
	}

	runUUID := newRunID()
	ctx = WithRunID(ctx, runUUID)
	runID := beginRun(runs, runUUID, req)

	result, _, err := CachedRun(ctx, p, req, cache)
	if err != nil {
		failRun(runs, runID, err)
		return nil, err
	}

	endRun(runs, runID, result)
	return result, nil
}

// ExecuteAggregate runs the configured request and prints the result.
// It serves as the main entry point for the 'aggregate' command.
func ExecuteAggregate(ctx context.Context, cfg *contract.Config, p *Pipeline, mgr contract.StoreManager) error {
	start := time.Now()
	result, err := RunAggregate(ctx, cfg, p, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintAggregation(result, cfg, time.Since(start))
}

// ExecuteParameters prints the parameter catalog.
// It serves as the main entry point for the 'parameters' command.
func ExecuteParameters(_ context.Context, cfg *contract.Config, cat *catalog.Catalog) error {
	return outwriter.PrintParameters(cat.Parameters(), cfg)
}
