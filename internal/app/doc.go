// Package app wires the NMC MCP server together and runs it.
//
// NewApplication loads configuration, initializes logging and builds the
// component graph in dependency order:
//
//	config -> logging -> metrics -> rate limiter -> HTTP client
//	       -> token store -> auth manager -> NMC API -> registry -> tools
//
// The HTTP client and the auth manager depend on each other: the manager
// logs in through the client, and the client asks the manager for tokens.
// The cycle is broken by creating the client first and attaching the
// manager with UseTokenSource once both exist.
//
// The same graph backs every CLI command. Serve runs the MCP transport (and
// the optional metrics listener) until interrupted, Check runs the
// connectivity check, and SelfTest dispatches every tool once.
package app
