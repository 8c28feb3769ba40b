package cmd

import (
	"github.com/spf13/cobra"

	"github.com/worldfishcenter/landings/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the landings MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents query landing-site series,
seasonal patterns, yearly rollups, percent changes and site summaries.

Diagnostics are logged to stderr so stdout stays reserved for the protocol.`,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
