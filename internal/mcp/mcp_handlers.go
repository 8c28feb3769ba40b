package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/worldfishcenter/landings/core"
	"github.com/worldfishcenter/landings/internal/contract"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	svc     *core.DataService
}

// queryConfig clones the base config and applies the request's query arguments.
func (h *toolHandler) queryConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	err := contract.RevalidateQuery(cfg,
		request.GetString("site", ""),
		request.GetString("metric", ""),
		request.GetString("period", ""),
		request.GetString("currency", ""),
	)
	if err != nil {
		return nil, err
	}
	cfg.SkipGaps = request.GetBool("skip_gaps", cfg.SkipGaps)
	return cfg, nil
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// runQuery validates the request and renders the result of build as JSON.
func runQuery[T any](ctx context.Context, h *toolHandler, request mcp.CallToolRequest,
	build func(context.Context, *core.DataService, *contract.Config) (T, error),
) (*mcp.CallToolResult, error) {
	cfg, err := h.queryConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid query parameters: %v", err)), nil
	}
	result, err := build(ctx, h.svc, cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleListSites(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sites, err := h.svc.Sites(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sites: %v", err)), nil
	}
	return jsonResult(sites)
}

func (h *toolHandler) handleGetSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return runQuery(ctx, h, request, core.BuildSeriesResult)
}

func (h *toolHandler) handleGetSeasonal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return runQuery(ctx, h, request, core.BuildSeasonalResult)
}

func (h *toolHandler) handleGetYearly(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return runQuery(ctx, h, request, core.BuildYearlyResult)
}

func (h *toolHandler) handleGetChange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return runQuery(ctx, h, request, core.BuildChangeResult)
}

func (h *toolHandler) handleGetSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := h.svc.Summaries(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to summarize sites: %v", err)), nil
	}
	return jsonResult(summaries)
}
