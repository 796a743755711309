package cmd

import (
	"github.com/prelev/prelev/core"
	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/internal/iocache"
	"github.com/prelev/prelev/schema"
	"github.com/spf13/cobra"
)

// aggregateCmd runs one aggregation request.
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate the series of a scope into one series per period.",
	Long: `Combine the value series of the selected points into a single series.

The run has two passes:
- The spatial pass merges every point into one value per period
- The temporal pass rolls those periods up to the requested frequency

Operators default to those of the parameter catalog. Daily aggregates are
used for sub-daily series whenever the request allows it, and missing
aggregates fall back to the raw samples with a warning.

Exactly one scope is used: --points, --preleveur or --attachment.

Examples:
  # Monthly withdrawn volume of two points
  prelev aggregate -p "volume prélevé" -q "1 month" --points P1,P2

  # Daily mean flow of every point of a préleveur in 2024
  prelev aggregate -p "débit prélevé" -q "1 day" --preleveur PR1 \
    --start 2024-01-01 --end 2024-12-31 --temporal-operator mean

  # Export yearly volumes to CSV without touching the cache
  prelev aggregate -p "volume prélevé" -q "1 year" --points P1 \
    --no-cache --output csv --output-file volumes.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.Output == schema.TextOut {
			pipeline.OnStage = func(s core.Stage) {
				contract.LogInfo("⏳ %s", s)
			}
		}
		if err := core.ExecuteAggregate(rootCtx, cfg, pipeline, iocache.Manager); err != nil {
			contract.LogFatal("Cannot run aggregation", err)
		}
	},
}
