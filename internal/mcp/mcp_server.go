// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prelev/prelev/core"
	"github.com/prelev/prelev/internal/contract"
)

// NewMCPServer initializes and configures the prelev MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, p *core.Pipeline, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Prelev Aggregation Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:  baseCfg,
		pipeline: p,
		mgr:      mgr,
	}

	// --- 1. Tool: aggregate_series ---
	s.AddTool(mcp.NewTool("aggregate_series",
		mcp.WithDescription("Aggregate the measurement series of one parameter across points and over time."),
		mcp.WithString("parameter", mcp.Description("Parameter name, as listed by list_parameters."), mcp.Required()),
		mcp.WithString("spatial_operator", mcp.Description("Operator combining points (sum, mean, min, max). Defaults to the parameter default."),
			mcp.Enum("sum", "mean", "min", "max")),
		mcp.WithString("temporal_operator", mcp.Description("Operator combining values over time (sum, mean, min, max). Defaults to the parameter default."),
			mcp.Enum("sum", "mean", "min", "max")),
		mcp.WithString("frequency", mcp.Description("Aggregation frequency. Defaults to '1 day'."),
			mcp.Enum("15 minutes", "1 hour", "6 hours", "1 day", "1 month", "1 quarter", "1 year")),
		mcp.WithString("start_date", mcp.Description("First date included (YYYY-MM-DD).")),
		mcp.WithString("end_date", mcp.Description("Last date included (YYYY-MM-DD).")),
		mcp.WithString("points", mcp.Description("Comma separated point identifiers.")),
		mcp.WithString("preleveur", mcp.Description("Préleveur identifier; points narrow it when given.")),
		mcp.WithString("attachment", mcp.Description("Attachment identifier; points narrow it when given.")),
	), h.handleAggregateSeries)

	// --- 2. Tool: list_parameters ---
	s.AddTool(mcp.NewTool("list_parameters",
		mcp.WithDescription("List the parameter catalog with legal and default operators, units and warnings."),
	), h.handleListParameters)

	return s
}

// StartMCPServer starts the prelev MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, p *core.Pipeline, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, p, mgr)
	return server.ServeStdio(s)
}
