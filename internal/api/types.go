package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Parameter types understood by the tool schema validator. They match the
// JSON Schema primitive type names advertised to the host.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Permission hints attached to tool descriptors. They document intent for the
// host and are not enforced.
const (
	PermissionRead  = "read"
	PermissionAdmin = "admin"
)

// ParameterMetadata describes a tool parameter
type ParameterMetadata struct {
	Name        string
	Type        string // one of the Type* constants
	Required    bool
	Description string
	Default     interface{}
	// Enum restricts a scalar parameter to a fixed set of values.
	Enum []string
	// ItemType is the element type for array parameters.
	ItemType string
}

// Handler executes a tool with validated arguments and returns its payload.
// A string payload is passed to the host verbatim; any other value is
// rendered as JSON.
type Handler func(ctx context.Context, args Args) (interface{}, error)

// ToolDescriptor describes a registered tool. It is immutable once registered.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  []ParameterMetadata
	// Permission documents the access level the tool needs.
	Permission string
	Handler    Handler
}

// Parameter returns the named parameter definition.
func (d ToolDescriptor) Parameter(name string) (ParameterMetadata, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterMetadata{}, false
}

// ToolError is the classified error carried by a failed ToolResult.
type ToolError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Field     string    `json:"field,omitempty"`
	Retryable bool      `json:"retryable"`
}

// ToolResult is the normalized outcome of one dispatch.
type ToolResult struct {
	Success bool        `json:"success"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *ToolError  `json:"error,omitempty"`
}

// NewSuccessResult wraps a handler payload.
func NewSuccessResult(payload interface{}) ToolResult {
	return ToolResult{Success: true, Payload: payload}
}

// NewErrorResult classifies err and wraps it in a failed ToolResult.
func NewErrorResult(err error) ToolResult {
	kind := Classify(err)
	te := &ToolError{
		Kind:      kind,
		Message:   err.Error(),
		Retryable: kind.Retryable(),
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		te.Field = ve.Field
	}
	return ToolResult{Success: false, Error: te}
}

// Text renders the payload for display. Strings are returned as-is and other
// values are indented JSON.
func (r ToolResult) Text() (string, error) {
	if !r.Success {
		if r.Error == nil {
			return "", nil
		}
		return r.Error.Message, nil
	}
	switch p := r.Payload.(type) {
	case nil:
		return "", nil
	case string:
		return p, nil
	default:
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render payload: %w", err)
		}
		return string(data), nil
	}
}

// Args holds validated tool arguments.
type Args map[string]interface{}

// Has reports whether name was supplied (or defaulted).
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the string argument name, or "" when absent.
func (a Args) String(name string) string {
	if v, ok := a[name].(string); ok {
		return v
	}
	return ""
}

// Bool returns the boolean argument name, or false when absent.
func (a Args) Bool(name string) bool {
	if v, ok := a[name].(bool); ok {
		return v
	}
	return false
}

// Int returns the integer argument name, or def when absent or not integral.
func (a Args) Int(name string, def int) int {
	switch v := a[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

// Float returns the numeric argument name, or def when absent.
func (a Args) Float(name string, def float64) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

// Strings returns the string-array argument name.
func (a Args) Strings(name string) []string {
	switch v := a[name].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
