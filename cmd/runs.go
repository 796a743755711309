package cmd

import (
	"fmt"

	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/internal/iocache"
	"github.com/prelev/prelev/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsBackendFromConfig reads the run tracking backend. An empty backend means none.
func runsBackendFromConfig() (schema.DatabaseBackend, string, error) {
	backend, err := contract.ParseBackend(schema.DatabaseBackend(viper.GetString("runs-backend")), schema.NoneBackend, "runs")
	if err != nil {
		return "", "", err
	}
	connStr := viper.GetString("runs-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for run tracking operations.
// This is used by commands that need the run store without full shared setup.
func runsSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := runsBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no result cache for runs commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run tracking: %w", err)
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func runsMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := runsBackendFromConfig()
	if err != nil {
		return err
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr

	return nil
}

// runsMigrateSetupWrapper wraps runsMigrateSetup to provide PreRunE for migrate command.
func runsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsMigrateSetup()
}

// runsCmd focused on run tracking management.
//
// Note: Runs subcommands use minimal initialization (runsSetup) instead of
// the full sharedSetup used by aggregation commands.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage aggregation run tracking and exports",
	Long: `Manage the history of aggregation runs.

When enabled with --runs-backend, Prelev records every aggregation run:
- Run metadata (request, start and end time, series count)
- The output values with their remarks

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Subcommands:
  status  - Show run tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  prelev runs status --runs-backend sqlite

  # Export for analysis in pandas/DuckDB
  prelev runs export --runs-backend sqlite --output-file runs`,
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run tracking data",
	Long: `Delete all stored runs and their output values.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  prelev runs export --runs-backend sqlite --output-file backup
  prelev runs clear --runs-backend sqlite`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// The SQLite file is removed, so close it first
		iocache.CloseStores()
		if err := iocache.ClearRuns(cfg.RunsBackend, contract.GetRunsDBFilePath(), cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear run data", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

// runsStatusCmd shows run tracking status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show detailed information about run tracking.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Total output values saved
- Database table sizes

Examples:
  # Check run tracking status
  prelev runs status --runs-backend sqlite`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetRunStore()
		if store == nil {
			iocache.PrintRunStatus(schema.RunStatus{Backend: string(cfg.RunsBackend)})
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(status)
	},
}

// runsExportCmd exports run data to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs to Parquet format for use with analytics tools.

Exports two datasets next to --output-file:
- <output-file>.runs.parquet - one row per run
- <output-file>.run_values.parquet - one row per output value

Requires: --output-file parameter

Examples:
  # Export all data
  prelev runs export --runs-backend sqlite --output-file prelev

  # Use with DuckDB for analysis
  duckdb -c "SELECT * FROM read_parquet('prelev.runs.parquet') LIMIT 10"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runsFile, valuesFile, err := iocache.ExportRuns(iocache.Manager.GetRunStore(), cfg.OutputFile)
		if err != nil {
			contract.LogFatal("Failed to export run data", err)
		}
		fmt.Printf("Exported runs to %s and values to %s.\n", runsFile, valuesFile)
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run run-tracking schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  prelev runs migrate --runs-backend sqlite

  # Rollback to initial state
  prelev runs migrate --runs-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		targetVersion, _ := cmd.Flags().GetInt("target-version")
		result, err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		printMigrationResult("Runs", result)
	},
}
