// Package cmd defines the command-line interface for prelev.
package cmd

import (
	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(parametersCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent series fetches")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Series store backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the series store")
	rootCmd.PersistentFlags().String("values-backend", string(schema.SQLValues), "Value documents backend: sql or s3")
	rootCmd.PersistentFlags().String("s3-endpoint", "", "S3 endpoint override (e.g., http://localhost:9000)")
	rootCmd.PersistentFlags().String("s3-bucket", "", "S3 bucket holding value documents")
	rootCmd.PersistentFlags().String("s3-region", contract.DefaultS3Region, "S3 region")
	rootCmd.PersistentFlags().String("s3-access-key", "", "S3 access key (defaults to the AWS credential chain)")
	rootCmd.PersistentFlags().String("s3-secret-key", "", "S3 secret key")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run tracking")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of aggregateCmd to Viper
	aggregateCmd.Flags().StringP("parameter", "p", "", "Parameter to aggregate (see 'prelev parameters')")
	aggregateCmd.Flags().String("spatial-operator", "", "Operator combining points within a period (default from catalog)")
	aggregateCmd.Flags().String("temporal-operator", "", "Operator combining periods into a bucket (default from catalog)")
	aggregateCmd.Flags().StringP("frequency", "q", "", "Aggregation frequency: 15 minutes, 1 hour, 6 hours, 1 day, 1 month, 1 quarter or 1 year")
	aggregateCmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	aggregateCmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	aggregateCmd.Flags().String("points", "", "Comma-separated list of point IDs")
	aggregateCmd.Flags().String("preleveur", "", "Select every point of a préleveur")
	aggregateCmd.Flags().String("attachment", "", "Select the series attached to a document")
	aggregateCmd.Flags().Int("remark-limit", contract.DefaultRemarkLimit, "Maximum remarks kept per value")
	aggregateCmd.Flags().Bool("no-cache", false, "Bypass the result cache")
	if err := viper.BindPFlags(aggregateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding aggregate flags", err)
	}

	// Both migrate commands share the flag name, so they read it from their own flag set
	for _, c := range []*cobra.Command{storeMigrateCmd, runsMigrateCmd} {
		c.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	}
}
