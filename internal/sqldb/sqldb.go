// Package sqldb opens the SQL backends shared by the data store, the result
// cache and run tracking, and runs their embedded migrations.
package sqldb

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"     // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/prelev/prelev/schema"
	_ "modernc.org/sqlite" // SQLite driver
)

// DB is a connection pool bound to the backend it talks to.
type DB struct {
	*sql.DB
	Backend schema.DatabaseBackend
	ConnStr string
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DriverName returns the database/sql driver registered for backend.
func DriverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s. Must be sqlite, mysql or postgresql", backend)
	}
}

// Open connects to backend and verifies the connection. An empty SQLite
// connection string opens defaultPath.
func Open(backend schema.DatabaseBackend, connStr, defaultPath string) (*DB, error) {
	driverName, err := DriverName(backend)
	if err != nil {
		return nil, err
	}

	dsn := connStr
	switch backend {
	case schema.SQLiteBackend:
		if dsn == "" {
			dsn = defaultPath
		}
	case schema.MySQLBackend:
		if dsn, err = normalizeMySQLDSN(connStr); err != nil {
			return nil, fmt.Errorf("invalid MySQL connection string: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	return &DB{DB: db, Backend: backend, ConnStr: dsn}, nil
}

// normalizeMySQLDSN enables time parsing and multi-statement migrations.
func normalizeMySQLDSN(connStr string) (string, error) {
	cfg, err := mysql.ParseDSN(connStr)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN(), nil
}

// MySQLDatabaseName returns the database named in a MySQL connection string.
func MySQLDatabaseName(connStr string) string {
	cfg, err := mysql.ParseDSN(connStr)
	if err != nil {
		return ""
	}
	return cfg.DBName
}

// ValidateTableName validates that the table name is a safe SQL identifier.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// QuoteTableName returns the properly quoted table name for the given backend.
func QuoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// Quote quotes a table name for the connection's backend.
func (db *DB) Quote(name string) string {
	return QuoteTableName(name, db.Backend)
}

// Rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
// Queries must not contain literal question marks.
func (db *DB) Rebind(query string) string {
	if db.Backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatTime converts a time.Time to the appropriate format for the backend.
func (db *DB) FormatTime(t time.Time) any {
	if db.Backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// TimeScanner returns a scan destination for a time column and a function
// reading it back, hiding that SQLite stores times as text.
func (db *DB) TimeScanner() (any, func() (*time.Time, error)) {
	if db.Backend == schema.SQLiteBackend {
		var s sql.NullString
		return &s, func() (*time.Time, error) {
			if !s.Valid {
				return nil, nil
			}
			t, err := time.Parse(time.RFC3339Nano, s.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse time %q: %w", s.String, err)
			}
			return &t, nil
		}
	}
	var t sql.NullTime
	return &t, func() (*time.Time, error) {
		if !t.Valid {
			return nil, nil
		}
		v := t.Time
		return &v, nil
	}
}

// DropTables connects to backend and drops the given tables if they exist.
func DropTables(backend schema.DatabaseBackend, connStr string, tables ...string) error {
	db, err := Open(backend, connStr, "")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, table := range tables {
		if err := ValidateTableName(table); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", db.Quote(table))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
