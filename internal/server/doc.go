// Package server exposes the tool registry to an MCP host.
//
// Every registered tool is advertised with a JSON Schema built from its
// parameter metadata. Calls are routed through the registry's Dispatch, so
// argument validation and error classification happen in one place; this
// package only converts the resulting ToolResult into an MCP CallToolResult.
//
// Two transports are supported, selected by configuration:
//
//   - stdio: the host spawns the process and speaks JSON-RPC over
//     stdin/stdout. Logs go to stderr.
//   - streamable-http: the server listens on the configured address and
//     serves the MCP endpoint at /mcp.
//
// Failed calls are reported as tool errors rather than protocol errors,
// with the error kind in brackets:
//
//	[transient] GET /api/v1.2/filers/ failed after 3 attempts: 503 Service Unavailable (retryable)
package server
