package app

import (
	"context"
	"os/signal"
	"syscall"

	"nmc-mcp/internal/server"
	"nmc-mcp/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// runServer executes the MCP server and, when configured, the metrics
// listener.
//
// Signal Handling:
//   - SIGINT (Ctrl+C): Triggers graceful shutdown
//   - SIGTERM: Triggers graceful shutdown (common in container environments)
//
// The stdio transport also returns when the host closes stdin, which stops
// the metrics listener as well.
func runServer(ctx context.Context, services *Services, version string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings := services.Settings
	mcpServer := server.New(services.Registry, settings.Server, version)

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, cancelServe := context.WithCancel(gctx)
	defer cancelServe()

	if addr := settings.Server.MetricsAddr; addr != "" {
		g.Go(func() error {
			return services.Metrics.Serve(serveCtx, addr)
		})
	}

	g.Go(func() error {
		// The transport ending for any reason ends the process.
		defer cancelServe()
		return mcpServer.Serve(serveCtx)
	})

	err := g.Wait()
	logging.Info("App", "Server stopped")
	return err
}
