package contract

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/prelev/prelev/schema"
)

// Default values for configuration.
const (
	DefaultPrecision   = 2
	MaxPrecision       = 4
	DefaultRemarkLimit = 10
	MaxRemarkLimit     = 100
	DefaultS3Region    = "us-east-1"
)

// DefaultWorkers is the default number of concurrent fetches.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// S3Config holds the settings of the S3 value store.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string // Please use env var as this is plaintext
}

// Config holds the runtime configuration for an aggregation.
// This struct remains the "final, validated" config.
type Config struct {
	Parameter        string
	SpatialOperator  schema.Operator
	TemporalOperator schema.Operator
	Frequency        schema.Frequency
	StartDate        string
	EndDate          string
	Scope            schema.Scope

	Workers     int
	RemarkLimit int
	NoCache     bool

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	ValuesBackend schema.ValuesBackend
	S3            S3Config

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Request ---
	Parameter        string `mapstructure:"parameter"`
	SpatialOperator  string `mapstructure:"spatial-operator"`
	TemporalOperator string `mapstructure:"temporal-operator"`
	Frequency        string `mapstructure:"frequency"`
	Start            string `mapstructure:"start"`
	End              string `mapstructure:"end"`
	Points           string `mapstructure:"points"`
	Preleveur        string `mapstructure:"preleveur"`
	Attachment       string `mapstructure:"attachment"`

	// --- Engine ---
	Workers     int  `mapstructure:"workers"`
	RemarkLimit int  `mapstructure:"remark-limit"`
	NoCache     bool `mapstructure:"no-cache"`

	// --- Output ---
	Precision  int    `mapstructure:"precision"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`

	// --- Stores ---
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	ValuesBackend  string `mapstructure:"values-backend"`
	S3Endpoint     string `mapstructure:"s3-endpoint"`
	S3Bucket       string `mapstructure:"s3-bucket"`
	S3Region       string `mapstructure:"s3-region"`
	S3AccessKey    string `mapstructure:"s3-access-key"`
	S3SecretKey    string `mapstructure:"s3-secret-key"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunsBackend    string `mapstructure:"runs-backend"`
	RunsDBConnect  string `mapstructure:"runs-db-connect"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Scope.PointIDs != nil {
		clone.Scope.PointIDs = append([]string(nil), c.Scope.PointIDs...)
	}
	return &clone
}

// Request builds the aggregation request described by the config.
func (c *Config) Request() schema.AggregationRequest {
	return schema.AggregationRequest{
		Parameter:            c.Parameter,
		SpatialOperator:      c.SpatialOperator,
		TemporalOperator:     c.TemporalOperator,
		AggregationFrequency: c.Frequency,
		StartDate:            c.StartDate,
		EndDate:              c.EndDate,
		Scope:                c.Clone().Scope,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processRequest(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return processValuesBackend(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend validates a backend name. An empty name yields the fallback.
func ParseBackend(name, fallback schema.DatabaseBackend, role string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(string(name)))
	if backend == "" {
		backend = fallback
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid %s backend '%s'. must be sqlite, mysql, postgresql, none", role, name)
	}
	return backend, nil
}

// validateSimpleInputs processes and validates output and engine fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.NoCache = input.NoCache

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.RemarkLimit < 0 || input.RemarkLimit > MaxRemarkLimit {
		return fmt.Errorf("remark-limit must be between 0 and %d (received %d)", MaxRemarkLimit, input.RemarkLimit)
	}
	cfg.RemarkLimit = input.RemarkLimit

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	return nil
}

// RevalidateRequest replaces the request fields of cfg with those of input.
// It is used by MCP tools, whose arguments bypass the command line.
func RevalidateRequest(cfg *Config, input *ConfigRawInput) error {
	return processRequest(cfg, input)
}

// processRequest parses the request tokens. Catalog rules are checked later by the pipeline.
func processRequest(cfg *Config, input *ConfigRawInput) error {
	cfg.Parameter = strings.TrimSpace(input.Parameter)

	var err error
	if cfg.SpatialOperator, err = parseOptionalOperator(input.SpatialOperator); err != nil {
		return fmt.Errorf("invalid --spatial-operator: %w", err)
	}
	if cfg.TemporalOperator, err = parseOptionalOperator(input.TemporalOperator); err != nil {
		return fmt.Errorf("invalid --temporal-operator: %w", err)
	}
	if cfg.Frequency, err = schema.ParseFrequency(input.Frequency); err != nil {
		return err
	}

	cfg.StartDate = strings.TrimSpace(input.Start)
	cfg.EndDate = strings.TrimSpace(input.End)
	for _, d := range []string{cfg.StartDate, cfg.EndDate} {
		if d != "" && !schema.ValidDate(d) {
			return fmt.Errorf("invalid date %q. expected YYYY-MM-DD", d)
		}
	}
	if cfg.StartDate != "" && cfg.EndDate != "" && cfg.StartDate > cfg.EndDate {
		return fmt.Errorf("start date %s is after end date %s", cfg.StartDate, cfg.EndDate)
	}

	cfg.Scope = schema.Scope{
		PointIDs:     SplitList(input.Points),
		PreleveurID:  strings.TrimSpace(input.Preleveur),
		AttachmentID: strings.TrimSpace(input.Attachment),
	}
	if cfg.Scope.PreleveurID != "" && cfg.Scope.AttachmentID != "" {
		return fmt.Errorf("--preleveur and --attachment cannot be combined")
	}
	return nil
}

func parseOptionalOperator(s string) (schema.Operator, error) {
	if strings.TrimSpace(s) == "" {
		return schema.NoOperator, nil
	}
	return schema.ParseOperator(s)
}

// validateBackendConfigs validates store, cache and runs backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	var err error

	// --- Data Store ---
	if cfg.StoreBackend, err = ParseBackend(schema.DatabaseBackend(input.StoreBackend), schema.SQLiteBackend, "store"); err != nil {
		return err
	}
	if cfg.StoreBackend == schema.NoneBackend {
		return fmt.Errorf("store backend cannot be none")
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- Cache ---
	if cfg.CacheBackend, err = ParseBackend(schema.DatabaseBackend(input.CacheBackend), schema.SQLiteBackend, "cache"); err != nil {
		return err
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Runs ---
	if input.RunsBackend != "" {
		if cfg.RunsBackend, err = ParseBackend(schema.DatabaseBackend(input.RunsBackend), schema.NoneBackend, "runs"); err != nil {
			return err
		}
		cfg.RunsDBConnect = input.RunsDBConnect
		if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
			return err
		}
	}

	return checkDistinctSQLiteFiles(cfg)
}

// checkDistinctSQLiteFiles rejects SQLite stores that resolve to the same file.
func checkDistinctSQLiteFiles(cfg *Config) error {
	paths := map[string]string{}
	stores := []struct {
		role    string
		backend schema.DatabaseBackend
		path    string
		def     string
	}{
		{"store", cfg.StoreBackend, cfg.StoreDBConnect, GetStoreDBFilePath()},
		{"cache", cfg.CacheBackend, cfg.CacheDBConnect, GetCacheDBFilePath()},
		{"runs", cfg.RunsBackend, cfg.RunsDBConnect, GetRunsDBFilePath()},
	}
	for _, s := range stores {
		if s.backend != schema.SQLiteBackend {
			continue
		}
		path := s.path
		if path == "" {
			path = s.def
		}
		if other, ok := paths[path]; ok {
			return fmt.Errorf("%s and %s storage must use different SQLite database files. Both resolve to %q", other, s.role, path)
		}
		paths[path] = s.role
	}
	return nil
}

// processValuesBackend validates where value documents are read from.
func processValuesBackend(cfg *Config, input *ConfigRawInput) error {
	cfg.ValuesBackend = schema.ValuesBackend(strings.ToLower(input.ValuesBackend))
	if cfg.ValuesBackend == "" {
		cfg.ValuesBackend = schema.SQLValues
	}
	if _, ok := schema.ValidValuesBackends[cfg.ValuesBackend]; !ok {
		return fmt.Errorf("invalid values backend '%s'. must be sql, s3", input.ValuesBackend)
	}
	if cfg.ValuesBackend != schema.S3Values {
		return nil
	}

	cfg.S3 = S3Config{
		Endpoint:  input.S3Endpoint,
		Bucket:    input.S3Bucket,
		Region:    input.S3Region,
		AccessKey: input.S3AccessKey,
		SecretKey: input.S3SecretKey,
	}
	if cfg.S3.Bucket == "" {
		return fmt.Errorf("s3-bucket is required when using the s3 values backend")
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = DefaultS3Region
	}
	if (cfg.S3.AccessKey == "") != (cfg.S3.SecretKey == "") {
		return fmt.Errorf("s3-access-key and s3-secret-key must be set together")
	}
	return nil
}
