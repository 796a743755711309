package datastore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/internal/sqldb"
	"github.com/prelev/prelev/schema"
)

// Table names of the data store.
const (
	seriesTable         = "series"
	preleveurPointTable = "preleveur_points"
	attachmentTable     = "series_attachments"
	integratedDayTable  = "series_integrated_days"
	documentTable       = "value_documents"
	generationTable     = "store_generation"

	// storeMigrationsTable keeps the migration history of the data store.
	storeMigrationsTable = "prelev_store_migrations"
)

//go:embed migrations
var migrationsFS embed.FS

// SQLStore keeps series descriptors and value documents in a SQL database.
type SQLStore struct {
	db *sqldb.DB
}

var (
	_ contract.SeriesResolver = &SQLStore{} // Compile-time check
	_ contract.ValueStore     = &SQLStore{} // Compile-time check
	_ contract.ValueWriter    = &SQLStore{} // Compile-time check
	_ contract.DataVersioner  = &SQLStore{} // Compile-time check
)

// NewSQLStore opens the data store and migrates it to the latest version.
func NewSQLStore(backend schema.DatabaseBackend, connStr string) (*SQLStore, error) {
	db, err := sqldb.Open(backend, connStr, contract.GetStoreDBFilePath())
	if err != nil {
		return nil, err
	}
	if _, err := sqldb.Migrate(db, migrationsFS, storeMigrationsTable, -1); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create store tables: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// MigrateStore migrates the data store schema to target (see sqldb.Migrate).
func MigrateStore(backend schema.DatabaseBackend, connStr string, target int) (sqldb.MigrationResult, error) {
	db, err := sqldb.Open(backend, connStr, contract.GetStoreDBFilePath())
	if err != nil {
		return sqldb.MigrationResult{}, err
	}
	defer func() { _ = db.Close() }()
	return sqldb.Migrate(db, migrationsFS, storeMigrationsTable, target)
}

// Close closes the underlying connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Resolve returns the series selected by the query scope, narrowed to the
// query parameter and date range.
func (s *SQLStore) Resolve(ctx context.Context, query schema.SeriesQuery) ([]schema.SeriesDescriptor, error) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString(fmt.Sprintf("SELECT s.series_id, s.point_id, s.parameter, s.frequency, s.min_date, s.max_date FROM %s s", s.db.Quote(seriesTable)))

	scope := query.Scope
	switch scope.Mode() {
	case schema.ScopeByPreleveur:
		b.WriteString(fmt.Sprintf(" JOIN %s pp ON pp.point_id = s.point_id WHERE pp.preleveur_id = ?", s.db.Quote(preleveurPointTable)))
		args = append(args, scope.PreleveurID)
	case schema.ScopeByAttachment:
		b.WriteString(fmt.Sprintf(" JOIN %s sa ON sa.series_id = s.series_id WHERE sa.attachment_id = ?", s.db.Quote(attachmentTable)))
		args = append(args, scope.AttachmentID)
	case schema.ScopeByPoints:
		b.WriteString(" WHERE 1 = 1")
	default:
		return []schema.SeriesDescriptor{}, nil
	}

	if len(scope.PointIDs) > 0 {
		b.WriteString(" AND s.point_id IN (" + placeholders(len(scope.PointIDs)) + ")")
		for _, p := range scope.PointIDs {
			args = append(args, p)
		}
	}
	if query.Parameter != "" {
		b.WriteString(" AND s.parameter = ?")
		args = append(args, query.Parameter)
	}
	if query.StartDate != "" {
		b.WriteString(" AND (s.max_date IS NULL OR s.max_date >= ?)")
		args = append(args, query.StartDate)
	}
	if query.EndDate != "" {
		b.WriteString(" AND (s.min_date IS NULL OR s.min_date <= ?)")
		args = append(args, query.EndDate)
	}
	b.WriteString(" ORDER BY s.series_id")

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	series := []schema.SeriesDescriptor{}
	index := map[string]int{}
	for rows.Next() {
		var (
			d                schema.SeriesDescriptor
			freq             string
			minDate, maxDate sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Point, &d.Parameter, &freq, &minDate, &maxDate); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		d.Frequency = schema.Frequency(freq)
		d.MinDate = minDate.String
		d.MaxDate = maxDate.String
		index[d.ID] = len(series)
		series = append(series, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series: %w", err)
	}
	if len(series) == 0 {
		return series, nil
	}

	if err := s.loadIntegratedDays(ctx, series, index); err != nil {
		return nil, err
	}
	return series, nil
}

func (s *SQLStore) loadIntegratedDays(ctx context.Context, series []schema.SeriesDescriptor, index map[string]int) error {
	args := make([]any, len(series))
	for i, d := range series {
		args[i] = d.ID
	}
	query := fmt.Sprintf("SELECT series_id, day FROM %s WHERE series_id IN (%s) ORDER BY series_id, day",
		s.db.Quote(integratedDayTable), placeholders(len(series)))
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to query integrated days: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id, day string
		if err := rows.Scan(&id, &day); err != nil {
			return fmt.Errorf("failed to scan integrated day: %w", err)
		}
		if i, ok := index[id]; ok {
			series[i].IntegratedDays = append(series[i].IntegratedDays, day)
		}
	}
	return rows.Err()
}

// Fetch returns the documents of a series ordered by date. With
// UseAggregates set, documents holding daily aggregates are returned with
// the aggregates only.
func (s *SQLStore) Fetch(ctx context.Context, seriesID string, opts schema.FetchOptions) ([]schema.ValueDocument, error) {
	query := fmt.Sprintf("SELECT doc_date, document, daily_aggregates FROM %s WHERE series_id = ?", s.db.Quote(documentTable))
	args := []any{seriesID}
	if opts.StartDate != "" {
		query += " AND doc_date >= ?"
		args = append(args, opts.StartDate)
	}
	if opts.EndDate != "" {
		query += " AND doc_date <= ?"
		args = append(args, opts.EndDate)
	}
	query += " ORDER BY doc_date"

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents of series %s: %w", seriesID, err)
	}
	defer func() { _ = rows.Close() }()

	docs := []schema.ValueDocument{}
	for rows.Next() {
		var (
			date, document string
			aggregates     sql.NullString
		)
		if err := rows.Scan(&date, &document, &aggregates); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		doc := schema.ValueDocument{Date: date}
		if opts.UseAggregates && aggregates.Valid {
			var daily schema.DailyAggregates
			if err := json.Unmarshal([]byte(aggregates.String), &daily); err != nil {
				return nil, fmt.Errorf("invalid daily aggregates for series %s on %s: %w", seriesID, date, err)
			}
			doc.DailyAggregates = &daily
		} else if err := json.Unmarshal([]byte(document), &doc); err != nil {
			return nil, fmt.Errorf("invalid document for series %s on %s: %w", seriesID, date, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// PutDocuments inserts or replaces the documents of a series in one transaction.
func (s *SQLStore) PutDocuments(ctx context.Context, seriesID string, docs []schema.ValueDocument) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := s.db.Rebind(s.upsertQuery(documentTable, []string{"series_id", "doc_date"}, []string{"document", "daily_aggregates"}))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare document insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, doc := range docs {
		raw := doc
		raw.DailyAggregates = nil
		document, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("failed to marshal document %s: %w", doc.Date, err)
		}
		var aggregates *string
		if doc.DailyAggregates != nil {
			data, err := json.Marshal(doc.DailyAggregates)
			if err != nil {
				return fmt.Errorf("failed to marshal daily aggregates %s: %w", doc.Date, err)
			}
			str := string(data)
			aggregates = &str
		}
		if _, err := stmt.ExecContext(ctx, seriesID, doc.Date, string(document), aggregates); err != nil {
			return fmt.Errorf("failed to insert document %s of series %s: %w", doc.Date, seriesID, err)
		}
	}
	return tx.Commit()
}

// PutSeries inserts or replaces a series descriptor with its attachments and
// integrated days.
func (s *SQLStore) PutSeries(ctx context.Context, rec SeriesRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := s.db.Rebind(s.upsertQuery(seriesTable, []string{"series_id"},
		[]string{"point_id", "parameter", "frequency", "min_date", "max_date"}))
	if _, err := tx.ExecContext(ctx, upsert, rec.ID, rec.Point, rec.Parameter, string(rec.Frequency),
		nullString(rec.MinDate), nullString(rec.MaxDate)); err != nil {
		return fmt.Errorf("failed to insert series %s: %w", rec.ID, err)
	}

	if err := s.replaceLinks(ctx, tx, attachmentTable, "series_id", "attachment_id", rec.ID, rec.Attachments); err != nil {
		return err
	}
	if err := s.replaceLinks(ctx, tx, integratedDayTable, "series_id", "day", rec.ID, rec.IntegratedDays); err != nil {
		return err
	}
	return tx.Commit()
}

// PutPreleveur replaces the points operated by a préleveur.
func (s *SQLStore) PutPreleveur(ctx context.Context, p PreleveurRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.replaceLinks(ctx, tx, preleveurPointTable, "preleveur_id", "point_id", p.ID, p.Points); err != nil {
		return err
	}
	return tx.Commit()
}

// replaceLinks deletes the rows of table owned by key and inserts one row per distinct value.
func (s *SQLStore) replaceLinks(ctx context.Context, tx *sql.Tx, table, keyColumn, valueColumn, key string, values []string) error {
	del := s.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.db.Quote(table), keyColumn))
	if _, err := tx.ExecContext(ctx, del, key); err != nil {
		return fmt.Errorf("failed to clear %s for %s: %w", table, key, err)
	}

	insert := s.db.Rebind(fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)", s.db.Quote(table), keyColumn, valueColumn))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		if _, err := tx.ExecContext(ctx, insert, key, v); err != nil {
			return fmt.Errorf("failed to insert into %s for %s: %w", table, key, err)
		}
	}
	return nil
}

// upsertQuery builds an insert that replaces the given columns on key conflict.
func (s *SQLStore) upsertQuery(table string, keys, columns []string) string {
	all := append(append([]string{}, keys...), columns...)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.db.Quote(table), strings.Join(all, ", "), placeholders(len(all)))

	updates := make([]string, len(columns))
	switch s.db.Backend {
	case schema.MySQLBackend:
		for i, c := range columns {
			updates[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		}
		return query + " ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
	default: // SQLite and PostgreSQL
		for i, c := range columns {
			updates[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
		return query + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(keys, ", "), strings.Join(updates, ", "))
	}
}

// MarkLoaded advances the store generation. Loaders call it once their
// writes are done so that results computed from older data are not reused.
func (s *SQLStore) MarkLoaded(ctx context.Context) error {
	query := fmt.Sprintf("UPDATE %s SET generation = generation + 1 WHERE id = 1", s.db.Quote(generationTable))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to advance store generation: %w", err)
	}
	return nil
}

// DataVersion returns the store generation, which changes on every load.
func (s *SQLStore) DataVersion(ctx context.Context) (string, error) {
	var generation int64
	query := fmt.Sprintf("SELECT generation FROM %s WHERE id = 1", s.db.Quote(generationTable))
	if err := s.db.QueryRowContext(ctx, query).Scan(&generation); err != nil {
		return "", fmt.Errorf("failed to read store generation: %w", err)
	}
	return strconv.FormatInt(generation, 10), nil
}

// GetStatus returns status information about the data store.
func (s *SQLStore) GetStatus() (schema.DataStoreStatus, error) {
	status := schema.DataStoreStatus{Backend: string(s.db.Backend), Connected: true}
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", s.db.Quote(seriesTable))).Scan(&status.TotalSeries); err != nil {
		return status, fmt.Errorf("failed to count series: %w", err)
	}
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", s.db.Quote(documentTable))).Scan(&status.TotalDocuments); err != nil {
		return status, fmt.Errorf("failed to count documents: %w", err)
	}
	return status, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
