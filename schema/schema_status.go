package schema

import "time"

// CacheStatus represents the status of the result cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// RunStatus represents the status of the run tracking store.
type RunStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	TotalRuns        int              `json:"total_runs"`
	LastRunID        int64            `json:"last_run_id"`
	LastRunTime      time.Time        `json:"last_run_time"`
	OldestRunTime    time.Time        `json:"oldest_run_time"`
	TotalValuesSaved int              `json:"total_values_saved"`
	FailedRuns       int              `json:"failed_runs"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}

// DataStoreStatus represents the status of the series and value store.
type DataStoreStatus struct {
	Backend        string `json:"backend"`
	Connected      bool   `json:"connected"`
	TotalSeries    int    `json:"total_series"`
	TotalDocuments int    `json:"total_documents"`
}

// RunRecord represents a row from the prelev_runs table.
type RunRecord struct {
	RunID            int64
	RunUUID          string
	Parameter        string
	SpatialOperator  *string
	TemporalOperator string
	Frequency        string
	ScopeJSON        string
	StartTime        time.Time
	EndTime          *time.Time
	RunDurationMs    *int
	SeriesCount      int
	ValuesCount      int
	ErrorMessage     *string
}

// RunValueRecord represents a row from the prelev_run_values table.
type RunValueRecord struct {
	RunID   int64
	Period  string
	Value   float64
	Remarks *string
}
