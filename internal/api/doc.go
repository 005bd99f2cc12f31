// Package api defines the types shared between the tool layer, the registry
// and the host adapter: the error taxonomy, tool descriptors, validated
// arguments and normalized tool results.
//
// Errors are plain structs with IsX helpers built on errors.As, so wrapped
// errors classify correctly:
//
//	if api.IsAuthError(err) {
//	    // credentials were rejected
//	}
//
// Classify maps any error onto an ErrorKind, and NewErrorResult turns it into
// a failed ToolResult the host can render.
package api
