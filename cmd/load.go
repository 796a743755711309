package cmd

import (
	"fmt"
	"os"

	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/internal/datastore"
	"github.com/spf13/cobra"
)

// loadCmd imports a JSON dataset into the configured stores.
var loadCmd = &cobra.Command{
	Use:   "load <dataset.json>",
	Short: "Import préleveurs, series and value documents from a JSON dataset.",
	Long: `Load a JSON dataset into the series store and the value backend.

The dataset holds:
- préleveurs with the points they operate
- series descriptors with their attachments and integrated days
- value documents, one per series and day

Sub-daily documents get their daily aggregates computed before storage.
Loading the same series again replaces its descriptor and documents.
Every load advances the store generation, which is part of the result cache
key, so results cached before the load are not served again.

Examples:
  # Load into the default SQLite store
  prelev load dataset.json

  # Keep values in S3 and metadata in PostgreSQL
  PRELEV_STORE_BACKEND=postgresql PRELEV_STORE_DB_CONNECT="host=... dbname=prelev" \
    prelev load dataset.json --values-backend s3 --s3-bucket prelev-values`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		file, err := os.Open(args[0])
		if err != nil {
			contract.LogFatal("Cannot open dataset", err)
		}
		defer func() { _ = file.Close() }()

		ds, err := datastore.ReadDataset(file)
		if err != nil {
			contract.LogFatal("Cannot read dataset", err)
		}
		stats, err := datastore.Load(rootCtx, ds, dataStore, valueWriter)
		if err != nil {
			contract.LogFatal("Cannot load dataset", err)
		}
		fmt.Printf("Loaded %d préleveurs, %d series and %d documents (%d with daily aggregates).\n",
			stats.Preleveurs, stats.Series, stats.Documents, stats.Aggregated)
	},
}
