package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prelev/prelev/core"
	"github.com/prelev/prelev/internal/contract"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg  *contract.Config
	pipeline *core.Pipeline
	mgr      contract.StoreManager
}

func (h *toolHandler) handleAggregateSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	input := &contract.ConfigRawInput{
		Parameter:        request.GetString("parameter", ""),
		SpatialOperator:  request.GetString("spatial_operator", ""),
		TemporalOperator: request.GetString("temporal_operator", ""),
		Frequency:        request.GetString("frequency", ""),
		Start:            request.GetString("start_date", ""),
		End:              request.GetString("end_date", ""),
		Points:           request.GetString("points", ""),
		Preleveur:        request.GetString("preleveur", ""),
		Attachment:       request.GetString("attachment", ""),
	}
	if err := contract.RevalidateRequest(cfg, input); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid aggregation parameters: %v", err)), nil
	}

	result, err := core.RunAggregate(ctx, cfg, h.pipeline, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("aggregation failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListParameters(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, _ := json.MarshalIndent(h.pipeline.Catalog.Parameters(), "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
