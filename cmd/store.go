package cmd

import (
	"fmt"

	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/internal/datastore"
	"github.com/prelev/prelev/internal/sqldb"
	"github.com/prelev/prelev/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeMigrateSetup loads the store settings without opening the store,
// so that migrations may run on a fresh database.
func storeMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, err := contract.ParseBackend(schema.DatabaseBackend(viper.GetString("store-backend")), schema.SQLiteBackend, "store")
	if err != nil {
		return err
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr

	return nil
}

// storeMigrateSetupWrapper wraps storeMigrateSetup to provide PreRunE for the migrate command.
func storeMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeMigrateSetup()
}

// storeCmd focused on the series store.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and migrate the series store",
	Long: `Manage the database holding series descriptors and value documents.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  status  - Show series and document counts
  migrate - Run database schema migrations

Examples:
  # Check what has been loaded
  prelev store status

  # Prepare a PostgreSQL database before the first load
  PRELEV_STORE_BACKEND=postgresql PRELEV_STORE_DB_CONNECT="host=... dbname=prelev" prelev store migrate`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display series store statistics and connection details",
	Long: `Show the backend of the series store and what it holds.

Document counts only cover the SQL value backend.

Examples:
  # Check store status
  prelev store status`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := dataStore.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		datastore.PrintStoreStatus(status)
	},
}

// storeMigrateCmd runs database migrations for the series store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run series store schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the series store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  prelev store migrate

  # Rollback to initial state
  prelev store migrate --target-version 0`,
	PreRunE: storeMigrateSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		targetVersion, _ := cmd.Flags().GetInt("target-version")
		result, err := datastore.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		printMigrationResult("Store", result)
	},
}

// printMigrationResult reports the schema versions of a migration.
func printMigrationResult(store string, result sqldb.MigrationResult) {
	if !result.Changed {
		fmt.Printf("%s schema already at version %d.\n", store, result.To)
		return
	}
	fmt.Printf("%s schema migrated from version %d to %d.\n", store, result.From, result.To)
}
