package sqldb

import (
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(schema.SQLiteBackend, filepath.Join(t.TempDir(), "test.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"simple", "result_cache", false},
		{"leading underscore", "_runs", false},
		{"empty", "", true},
		{"leading digit", "1runs", true},
		{"injection", "runs; DROP TABLE series", true},
		{"quote", `runs"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`runs`", QuoteTableName("runs", schema.MySQLBackend))
	assert.Equal(t, `"runs"`, QuoteTableName("runs", schema.PostgreSQLBackend))
	assert.Equal(t, `"runs"`, QuoteTableName("runs", schema.SQLiteBackend))
}

func TestRebind(t *testing.T) {
	query := "SELECT a FROM t WHERE b = ? AND c = ?"
	pg := &DB{Backend: schema.PostgreSQLBackend}
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", pg.Rebind(query))

	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend} {
		db := &DB{Backend: backend}
		assert.Equal(t, query, db.Rebind(query))
	}
}

func TestDriverName(t *testing.T) {
	name, err := DriverName(schema.PostgreSQLBackend)
	require.NoError(t, err)
	assert.Equal(t, "pgx", name)

	_, err = DriverName(schema.NoneBackend)
	assert.Error(t, err)
}

func TestOpenSQLiteDefaultPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.db")
	db, err := Open(schema.SQLiteBackend, "", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	assert.Equal(t, path, db.ConnStr)
	assert.FileExists(t, path)
}

func TestMySQLDatabaseName(t *testing.T) {
	assert.Equal(t, "prelev", MySQLDatabaseName("user:pw@tcp(localhost:3306)/prelev"))
	assert.Empty(t, MySQLDatabaseName("not a dsn"))
}

func TestTimeRoundTripSQLite(t *testing.T) {
	db := openTemp(t)
	_, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, at TEXT, later TEXT)`)
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 10, 30, 0, 123000000, time.UTC)
	_, err = db.Exec(`INSERT INTO t (id, at, later) VALUES (?, ?, NULL)`, 1, db.FormatTime(now))
	require.NoError(t, err)

	atDest, readAt := db.TimeScanner()
	laterDest, readLater := db.TimeScanner()
	require.NoError(t, db.QueryRow(`SELECT at, later FROM t WHERE id = 1`).Scan(atDest, laterDest))

	at, err := readAt()
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.True(t, now.Equal(*at))

	later, err := readLater()
	require.NoError(t, err)
	assert.Nil(t, later)
}

func TestMigrate(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/sqlite/1_widgets.up.sql":   {Data: []byte(`CREATE TABLE widgets (id INTEGER PRIMARY KEY);`)},
		"migrations/sqlite/1_widgets.down.sql": {Data: []byte(`DROP TABLE widgets;`)},
		"migrations/sqlite/2_gadgets.up.sql":   {Data: []byte(`CREATE TABLE gadgets (id INTEGER PRIMARY KEY);`)},
		"migrations/sqlite/2_gadgets.down.sql": {Data: []byte(`DROP TABLE gadgets;`)},
	}
	db := openTemp(t)

	res, err := Migrate(db, fsys, "widget_migrations", -1)
	require.NoError(t, err)
	assert.Equal(t, MigrationResult{From: 0, To: 2, Changed: true}, res)

	res, err = Migrate(db, fsys, "widget_migrations", -1)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, uint(2), res.To)

	res, err = Migrate(db, fsys, "widget_migrations", 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), res.To)

	_, err = db.Exec(`SELECT COUNT(*) FROM gadgets`)
	assert.Error(t, err)

	res, err = Migrate(db, fsys, "widget_migrations", 0)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint(0), res.To)

	_, err = Migrate(db, fsys, "bad-name", -1)
	assert.Error(t, err)
}

func TestDropTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drop.db")
	db, err := Open(schema.SQLiteBackend, path, "")
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE doomed (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.NoError(t, DropTables(schema.SQLiteBackend, path, "doomed", "missing"))
	assert.Error(t, DropTables(schema.SQLiteBackend, path, "bad name"))
}
