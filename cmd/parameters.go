package cmd

import (
	"github.com/prelev/prelev/core"
	"github.com/prelev/prelev/internal/contract"
	"github.com/spf13/cobra"
)

// parametersCmd prints the parameter catalog.
var parametersCmd = &cobra.Command{
	Use:   "parameters",
	Short: "List the parameters that can be aggregated.",
	Long: `Print the parameter catalog with the legal operators of each parameter.

For each parameter, shows:
- Value type (cumulative or instantaneous)
- Spatial operators, default starred
- Temporal operators, default starred
- Unit

Examples:
  # Show the catalog
  prelev parameters

  # Feed the catalog to another tool
  prelev parameters --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteParameters(rootCtx, cfg, pipeline.Catalog); err != nil {
			contract.LogFatal("Cannot list parameters", err)
		}
	},
}
