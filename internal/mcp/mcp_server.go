// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/worldfishcenter/landings/core"
	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/internal/logger"
)

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

var (
	siteParam     = mcp.WithString("site", mcp.Description("Landing site name, or 'all' for the cross-site average. Defaults to the configured site."))
	metricParam   = mcp.WithString("metric", mcp.Description("Metric to query. Defaults to the configured metric."), mcp.Enum("median_cpue", "median_rpue", "catch"))
	currencyParam = mcp.WithString("currency", mcp.Description("Display currency for revenue values."), mcp.Enum("TZS", "USD", "EUR"))
)

// NewMCPServer initializes and configures the landings MCP server without starting it.
// Every tool call shares svc, so repeated queries are served from its caches.
func NewMCPServer(baseCfg *contract.Config, svc *core.DataService) *server.MCPServer {
	s := server.NewMCPServer(
		"Landings Data Server",
		Version,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		svc:     svc,
	}

	s.AddTool(mcp.NewTool("list_landing_sites",
		mcp.WithDescription("List the Zanzibar landing sites with their labels and coordinates."),
	), h.handleListSites)

	s.AddTool(mcp.NewTool("get_site_series",
		mcp.WithDescription("Get the monthly time series of a metric for one landing site or all sites, with the per-site series."),
		siteParam, metricParam, currencyParam,
	), h.handleGetSeries)

	s.AddTool(mcp.NewTool("get_seasonal_pattern",
		mcp.WithDescription("Get the median value of a metric for each calendar month (Jan-Dec)."),
		siteParam, metricParam, currencyParam,
	), h.handleGetSeasonal)

	s.AddTool(mcp.NewTool("get_yearly_rollup",
		mcp.WithDescription("Get the mean value of a metric for each calendar year."),
		siteParam, metricParam, currencyParam,
	), h.handleGetYearly)

	s.AddTool(mcp.NewTool("get_percent_change",
		mcp.WithDescription("Get the percent change between the two most recent periods of a metric."),
		siteParam, metricParam,
		mcp.WithString("period", mcp.Description("Compare months or calendar years. Defaults to 'monthly'."), mcp.Enum("monthly", "yearly")),
		mcp.WithBoolean("skip_gaps", mcp.Description("Compare the two latest periods that have data instead of the two latest periods.")),
	), h.handleGetChange)

	s.AddTool(mcp.NewTool("get_site_summary",
		mcp.WithDescription("Get average CPUE, average catch and the number of months with data for every landing site."),
	), h.handleGetSummary)

	return s
}

// StartMCPServer serves the landings tools over stdio until the client disconnects.
func StartMCPServer(ctx context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	svc, err := core.NewServiceFromConfig(ctx, baseCfg, mgr)
	if err != nil {
		return err
	}
	defer svc.Close()

	log := logger.FromContext(ctx)
	log.Info("starting MCP server")
	return server.ServeStdio(NewMCPServer(baseCfg, svc))
}
