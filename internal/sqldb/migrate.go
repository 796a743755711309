package sqldb

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/prelev/prelev/schema"
)

// MigrationResult reports the schema versions before and after a migration.
type MigrationResult struct {
	From    uint
	To      uint
	Changed bool
}

// Migrate applies the migrations found in migrations/<backend> of fsys.
// - If target < 0, it migrates to the latest version.
// - If target == 0, it rolls back all migrations (to initial state).
// - If target > 0, it migrates to the specified version.
// The migration history is kept in table historyTable so that several stores
// may share one database.
func Migrate(db *DB, fsys fs.FS, historyTable string, target int) (MigrationResult, error) {
	var result MigrationResult
	if err := ValidateTableName(historyTable); err != nil {
		return result, err
	}

	var driver database.Driver
	var err error
	switch db.Backend {
	case schema.SQLiteBackend:
		driver, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{MigrationsTable: historyTable})
	case schema.MySQLBackend:
		driver, err = migratemysql.WithInstance(db.DB, &migratemysql.Config{MigrationsTable: historyTable})
	case schema.PostgreSQLBackend:
		driver, err = migratepgx.WithInstance(db.DB, &migratepgx.Config{MigrationsTable: historyTable})
	default:
		return result, fmt.Errorf("migrations are not supported for backend %s", db.Backend)
	}
	if err != nil {
		return result, fmt.Errorf("failed to create %s migrate driver: %w", db.Backend, err)
	}

	migrationFS, err := fs.Sub(fsys, "migrations/"+string(db.Backend))
	if err != nil {
		return result, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return result, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(db.Backend), driver)
	if err != nil {
		return result, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return result, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", from)
	}
	result.From = from

	switch {
	case target < 0:
		err = m.Up()
	case target == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(target))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		result.To = from
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to migrate from version %d: %w", from, err)
	}

	to, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to read migrated version: %w", err)
	}
	result.To = to
	result.Changed = true
	return result, nil
}
