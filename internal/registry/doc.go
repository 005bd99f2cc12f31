// Package registry holds the tool catalog and dispatches tool invocations.
//
// Tools are registered once at startup as api.ToolDescriptor values. Dispatch
// validates the raw arguments against the descriptor's parameter schema
// (required fields, JSON types, enums, array item types, unknown fields,
// defaults) before the handler runs, and always returns an api.ToolResult:
// transports never see a Go error from Dispatch.
package registry
