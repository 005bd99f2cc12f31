// Package logging provides the structured, subsystem-tagged logger used across
// nmc-mcp.
//
// The logger is built on log/slog. Every entry carries a "subsystem" attribute
// so output from the auth manager, the rate limiter, the HTTP client and the
// tool dispatcher can be filtered independently.
//
// # Output
//
// Logs go to stderr by default. When the MCP server runs over stdio, stdout
// carries the protocol stream and must never receive log lines.
//
// # Usage
//
//	logging.Init(logging.Options{Level: logging.LevelDebug, Format: logging.FormatJSON})
//
//	logging.Info("Auth", "Obtained token %s", preview)
//	logging.Warn("RateLimit", "Waiting %v for a slot", wait)
//	logging.Error("HTTPClient", err, "Request %s %s failed", method, path)
//
// Before Init is called only warnings and errors are printed, using a plain
// fallback format.
package logging
