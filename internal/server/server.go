package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/config"
	"nmc-mcp/internal/registry"
	"nmc-mcp/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const instructions = "Read-only access to a Nasuni Management Console: filers, volumes, " +
	"shares, filer health, cloud credentials and notifications. Authentication is " +
	"handled automatically; use the auth tools only to inspect or force a token refresh."

// EndpointPath is where the streamable-http transport serves MCP.
const EndpointPath = "/mcp"

// Server adapts a tool dispatcher to the MCP protocol.
type Server struct {
	cfg        config.ServerConfig
	dispatcher registry.Dispatcher
	mcpServer  *server.MCPServer
}

// New creates an MCP server advertising every tool the dispatcher lists.
// The catalog is read once; tools registered afterwards are not advertised.
//
// Args:
//   - dispatcher: Registry that lists and dispatches tools
//   - cfg: Server name, transport and listen address
//   - version: Version string reported during initialization
func New(dispatcher registry.Dispatcher, cfg config.ServerConfig, version string) *Server {
	if cfg.Name == "" {
		cfg.Name = config.DefaultServerName
	}
	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		mcpServer: server.NewMCPServer(
			cfg.Name,
			version,
			server.WithToolCapabilities(false),
			server.WithInstructions(instructions),
		),
	}

	catalog := dispatcher.List()
	tools := make([]server.ServerTool, 0, len(catalog))
	for _, desc := range catalog {
		tools = append(tools, server.ServerTool{
			Tool:    convertToMCPTool(desc),
			Handler: s.createToolHandler(desc.Name),
		})
	}
	s.mcpServer.AddTools(tools...)
	logging.Debug("Server", "Advertising %d tools as %s %s", len(tools), cfg.Name, version)
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) createToolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return convertToMCPResult(s.dispatcher.Dispatch(ctx, name, req.GetArguments())), nil
	}
}

// Serve runs the configured transport until ctx is cancelled or the host
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	switch s.cfg.Transport {
	case config.MCPTransportStdio, "":
		logging.Info("Server", "Starting MCP server with stdio transport")
		err := server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio transport: %w", err)
		}
		return nil

	case config.MCPTransportStreamableHTTP:
		return s.serveHTTP(ctx)

	default:
		cfgErr := &api.ConfigError{}
		cfgErr.Add("MCP_TRANSPORT", "unsupported transport %q", s.cfg.Transport)
		return cfgErr
	}
}

func (s *Server) serveHTTP(ctx context.Context) error {
	logging.Info("Server", "Starting MCP server with streamable-http transport on http://%s%s", s.cfg.Addr, EndpointPath)
	streamableServer := server.NewStreamableHTTPServer(s.mcpServer, server.WithEndpointPath(EndpointPath))

	errCh := make(chan error, 1)
	go func() {
		errCh <- streamableServer.Start(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("streamable-http transport: %w", err)
		}
		return nil
	case <-ctx.Done():
		logging.Info("Server", "Stopping MCP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := streamableServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down streamable HTTP server")
		}
		return nil
	}
}
