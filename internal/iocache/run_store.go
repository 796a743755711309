package iocache

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/internal/sqldb"
	"github.com/prelev/prelev/schema"
)

// Table names for run tracking.
const (
	runsTable      = "prelev_runs"
	runValuesTable = "prelev_run_values"

	// runsMigrationsTable keeps the migration history of the run tables.
	runsMigrationsTable = "prelev_runs_migrations"
)

//go:embed migrations
var migrationsFS embed.FS

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sqldb.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend and migrates
// its tables to the latest version.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := sqldb.Open(backend, connStr, GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}
	if _, err := sqldb.Migrate(db, migrationsFS, runsMigrationsTable, -1); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(runUUID string, startTime time.Time, req schema.AggregationRequest) (int64, error) {
	if rs.db == nil {
		return 0, nil
	}

	scopeJSON, err := json.Marshal(req.Scope)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal scope: %w", err)
	}
	var spatial *string
	if req.SpatialOperator != schema.NoOperator {
		op := string(req.SpatialOperator)
		spatial = &op
	}
	args := []any{runUUID, req.Parameter, spatial, string(req.TemporalOperator), string(req.AggregationFrequency),
		string(scopeJSON), rs.db.FormatTime(startTime)}
	columns := "run_uuid, parameter, spatial_operator, temporal_operator, frequency, scope_json, start_time"
	table := rs.db.Quote(runsTable)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING run_id`, table, columns)
		err = rs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)`, table, columns)
		var result sql.Result
		result, err = rs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, seriesCount, valuesCount int) error {
	return rs.finishRun(runID, endTime, seriesCount, valuesCount, nil)
}

// FailRun closes a run that ended with an error.
func (rs *RunStoreImpl) FailRun(runID int64, endTime time.Time, runErr error) error {
	msg := "unknown error"
	if runErr != nil {
		msg = runErr.Error()
	}
	return rs.finishRun(runID, endTime, 0, 0, &msg)
}

// finishRun sets the end time, duration, counts and error message of a run.
func (rs *RunStoreImpl) finishRun(runID int64, endTime time.Time, seriesCount, valuesCount int, errMsg *string) error {
	if rs.db == nil {
		return nil
	}

	table := rs.db.Quote(runsTable)
	dest, read := rs.db.TimeScanner()
	query := rs.db.Rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, table))
	if err := rs.db.QueryRow(query, runID).Scan(dest); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := read()
	if err != nil {
		return err
	}
	if startTime == nil {
		return fmt.Errorf("run %d has no start_time", runID)
	}

	durationMs := endTime.Sub(*startTime).Milliseconds()
	update := rs.db.Rebind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, series_count = ?, values_count = ?, error_message = ? WHERE run_id = ?`, table))
	if _, err := rs.db.Exec(update, rs.db.FormatTime(endTime), durationMs, seriesCount, valuesCount, errMsg, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordValues stores the output values of a run in one transaction.
func (rs *RunStoreImpl) RecordValues(runID int64, values []schema.ExtractedValue) error {
	if rs.db == nil || len(values) == 0 {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := rs.db.Rebind(fmt.Sprintf(`INSERT INTO %s (run_id, period, value, remarks) VALUES (?, ?, ?, ?)`, rs.db.Quote(runValuesTable)))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare value insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, v := range values {
		var remarks *string
		if len(v.Remarks) > 0 {
			data, err := json.Marshal(v.Remarks)
			if err != nil {
				return fmt.Errorf("failed to marshal remarks: %w", err)
			}
			s := string(data)
			remarks = &s
		}
		if _, err := stmt.Exec(runID, v.Period, v.Value, remarks); err != nil {
			return fmt.Errorf("failed to insert value for period %s: %w", v.Period, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.db == nil {
		return status, nil
	}

	table := rs.db.Quote(runsTable)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		lastDest, readLast := rs.db.TimeScanner()
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", table))
		if err := row.Scan(&status.LastRunID, lastDest); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if t, err := readLast(); err != nil {
			return status, err
		} else if t != nil {
			status.LastRunTime = *t
		}

		oldestDest, readOldest := rs.db.TimeScanner()
		row = rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", table))
		if err := row.Scan(oldestDest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		if t, err := readOldest(); err != nil {
			return status, err
		} else if t != nil {
			status.OldestRunTime = *t
		}

		row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(values_count), 0) FROM %s", table))
		if err := row.Scan(&status.TotalValuesSaved); err != nil {
			return status, fmt.Errorf("failed to get total values saved: %w", err)
		}

		row = rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE error_message IS NOT NULL", table))
		if err := row.Scan(&status.FailedRuns); err != nil {
			return status, fmt.Errorf("failed to get failed runs: %w", err)
		}
	}

	for _, name := range []string{runsTable, runValuesTable} {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", rs.db.Quote(name))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", name, err)
		}
		status.TableSizes[name] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, parameter, spatial_operator, temporal_operator, frequency, scope_json,
		start_time, end_time, run_duration_ms, series_count, values_count, error_message FROM %s ORDER BY run_id`, rs.db.Quote(runsTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		startDest, readStart := rs.db.TimeScanner()
		endDest, readEnd := rs.db.TimeScanner()
		if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Parameter, &record.SpatialOperator,
			&record.TemporalOperator, &record.Frequency, &record.ScopeJSON, startDest, endDest,
			&record.RunDurationMs, &record.SeriesCount, &record.ValuesCount, &record.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		start, err := readStart()
		if err != nil {
			return nil, err
		}
		if start != nil {
			record.StartTime = *start
		}
		if record.EndTime, err = readEnd(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllRunValues retrieves all stored run values.
func (rs *RunStoreImpl) GetAllRunValues() ([]schema.RunValueRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, period, value, remarks FROM %s ORDER BY run_id, period`, rs.db.Quote(runValuesTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query run values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunValueRecord
	for rows.Next() {
		var record schema.RunValueRecord
		if err := rows.Scan(&record.RunID, &record.Period, &record.Value, &record.Remarks); err != nil {
			return nil, fmt.Errorf("failed to scan run value: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run values: %w", err)
	}
	return results, nil
}

// MigrateRuns runs database migrations for the run store.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations (to initial state).
// - If targetVersion > 0, it migrates to the specified version.
func MigrateRuns(backend schema.DatabaseBackend, connStr string, targetVersion int) (sqldb.MigrationResult, error) {
	if backend == schema.NoneBackend {
		return sqldb.MigrationResult{}, fmt.Errorf("migrations are not supported for NoneBackend")
	}
	db, err := sqldb.Open(backend, connStr, GetRunsDBFilePath())
	if err != nil {
		return sqldb.MigrationResult{}, err
	}
	defer func() { _ = db.Close() }()
	return sqldb.Migrate(db, migrationsFS, runsMigrationsTable, targetVersion)
}
