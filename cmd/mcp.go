package cmd

import (
	"github.com/prelev/prelev/internal/iocache"
	"github.com/prelev/prelev/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Prelev MCP server",
	Long:  `Launch an MCP server that allows AI agents to aggregate series and browse the parameter catalog via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Stage logs are never enabled here: stdio carries the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, pipeline, iocache.Manager)
	},
}
