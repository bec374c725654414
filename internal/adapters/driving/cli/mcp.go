package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the assistant to MCP clients",
	Long: `Serves the retrieve, ask and search_tables tools (plus list_documents and
ingest_file) and a documents resource over MCP.

Stdio is used by default, which is what desktop assistants launch:
  {
    "mcpServers": {
      "troubleshoot": {
        "command": "/path/to/troubleshoot",
        "args": ["mcp", "serve"]
      }
    }
  }

Use --http to serve the streamable HTTP transport instead, for example to
point MCP Inspector at it:
  troubleshoot mcp serve --http localhost:8090`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve over HTTP on this address instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Assistant: assistantService,
		Ingest:    ingestService,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		// stdout stays clean for clients that capture it
		cmd.PrintErrf("MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}
	return server.Run(cmd.Context())
}
