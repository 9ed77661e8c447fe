package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/commitmap/internal/iostore"
	"github.com/huangsam/commitmap/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the commitmap MCP server",
	Long:  `Launch an MCP server on stdio that lets AI agents query the commit/file relation store.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		// Logs go to stderr; stdout carries the protocol.
		return storeSetup(true)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, iostore.Manager)
	},
}
