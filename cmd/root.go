package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/prelev/prelev/core"
	"github.com/prelev/prelev/core/catalog"
	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/internal/datastore"
	"github.com/prelev/prelev/internal/iocache"
	"github.com/prelev/prelev/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// dataStore holds series metadata, and values unless they live in S3.
var dataStore *datastore.SQLStore

// valueWriter receives loaded value documents.
var valueWriter contract.ValueWriter

// pipeline is the aggregation pipeline built from the configured stores.
var pipeline *core.Pipeline

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "prelev",
	Short:              "Aggregate water withdrawal measurements across points and time.",
	Long:               `Prelev combines the value series of withdrawal points into one series per period, following the rules of a parameter catalog.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigSource()

	// Set environment variable prefix
	viper.SetEnvPrefix("PRELEV")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("remark-limit", contract.DefaultRemarkLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("values-backend", schema.SQLValues)
	viper.SetDefault("s3-region", contract.DefaultS3Region)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("runs-backend", "")
	viper.SetDefault("runs-db-connect", "")
	viper.SetDefault("color", "yes")
}

// setConfigSource points Viper at --config or at .prelev.yaml in the usual places.
func setConfigSource() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".prelev") // Name of config file (without extension)
	viper.SetConfigType("yaml")    // We'll use YAML format
	viper.AddConfigPath(".")       // Look in the current directory
	viper.AddConfigPath("$HOME")   // Look in the home directory
}

// sharedSetup unmarshals config, runs validation and opens every store.
func sharedSetup(ctx context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	// 5. Open the data store and assemble the pipeline
	return openDataStore(ctx)
}

// openDataStore opens the series store and the configured value backend.
func openDataStore(ctx context.Context) error {
	store, err := datastore.NewSQLStore(cfg.StoreBackend, cfg.StoreDBConnect)
	if err != nil {
		return fmt.Errorf("failed to open data store: %w", err)
	}
	dataStore = store

	var values interface {
		contract.ValueStore
		contract.ValueWriter
	} = store
	if cfg.ValuesBackend == schema.S3Values {
		client, err := datastore.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to configure S3: %w", err)
		}
		values = datastore.NewS3Store(client, cfg.S3.Bucket)
	}
	valueWriter = values

	pipeline = core.NewPipeline(catalog.Default(), store, values)
	pipeline.Workers = cfg.Workers
	pipeline.RemarkLimit = cfg.RemarkLimit
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	setConfigSource()

	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// Execute runs the root command and releases the stores it opened.
func Execute() error {
	defer iocache.CloseStores()
	defer func() {
		if dataStore != nil {
			_ = dataStore.Close()
		}
	}()
	return rootCmd.Execute()
}
