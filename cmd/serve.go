package cmd

import (
	"fmt"

	"nmc-mcp/internal/app"

	"github.com/spf13/cobra"
)

var (
	serveTransport   string
	serveAddr        string
	serveMetricsAddr string
)

// serveCmd starts the MCP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Starts the MCP server and serves NMC tools until interrupted.

Transports:
  stdio            The host spawns nmc-mcp and speaks JSON-RPC over stdin/stdout (default).
  streamable-http  nmc-mcp listens on --addr and serves MCP at /mcp.

Flags override the matching environment variables (MCP_TRANSPORT, MCP_ADDR,
METRICS_ADDR). Set --metrics-addr to expose Prometheus metrics at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig()
	cfg.Override("MCP_TRANSPORT", serveTransport)
	cfg.Override("MCP_ADDR", serveAddr)
	cfg.Override("METRICS_ADDR", serveMetricsAddr)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	return application.Serve(commandContext(cmd))
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "MCP transport: stdio or streamable-http")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address for streamable-http (default 127.0.0.1:8090)")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Listen address for Prometheus metrics (disabled when empty)")
}
