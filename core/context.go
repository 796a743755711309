package core

import "context"

// Context keys for run options
type contextKey string

const runIDKey contextKey = "runID"

// WithRunID sets the identifier given to the next aggregation run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// runIDFromContext returns the run identifier set on the context, or "".
func runIDFromContext(ctx context.Context) string {
	val, ok := ctx.Value(runIDKey).(string)
	if !ok {
		return ""
	}
	return val
}
