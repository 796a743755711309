package core

import (
	"time"

	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/schema"
)

// beginRun records the start of a run. It returns 0 when tracking is
// disabled or failed.
func beginRun(runs contract.RunStore, runUUID string, req schema.AggregationRequest) int64 {
	if runs == nil {
		return 0
	}
	runID, err := runs.BeginRun(runUUID, time.Now(), req)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return 0
	}
	return runID
}

// endRun stores the output values and finalizes the run.
func endRun(runs contract.RunStore, runID int64, result *schema.AggregationResult) {
	if runs == nil || runID <= 0 {
		return
	}
	if err := runs.RecordValues(runID, result.Values); err != nil {
		contract.LogWarn("Failed to record run values", err)
	}
	if err := runs.EndRun(runID, time.Now(), result.Metadata.SeriesCount, result.Metadata.ValuesCount); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// failRun closes a run whose aggregation returned runErr.
func failRun(runs contract.RunStore, runID int64, runErr error) {
	if runs == nil || runID <= 0 {
		return
	}
	if err := runs.FailRun(runID, time.Now(), runErr); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
