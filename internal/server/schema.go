package server

import (
	"nmc-mcp/internal/api"

	"github.com/mark3labs/mcp-go/mcp"
)

// convertToMCPSchema converts parameter metadata to the MCP input schema.
func convertToMCPSchema(params []api.ParameterMetadata) mcp.ToolInputSchema {
	properties := make(map[string]interface{}, len(params))
	required := []string{}

	for _, param := range params {
		propSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if len(param.Enum) > 0 {
			propSchema["enum"] = append([]string(nil), param.Enum...)
		}
		if param.ItemType != "" {
			propSchema["items"] = map[string]interface{}{"type": param.ItemType}
		}
		if param.Default != nil {
			propSchema["default"] = param.Default
		}

		properties[param.Name] = propSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// convertToMCPTool builds the advertised tool for a descriptor.
func convertToMCPTool(desc api.ToolDescriptor) mcp.Tool {
	return mcp.Tool{
		Name:        desc.Name,
		Description: desc.Description,
		InputSchema: convertToMCPSchema(desc.Parameters),
		Annotations: mcp.ToolAnnotation{
			ReadOnlyHint:  mcp.ToBoolPtr(desc.Permission != api.PermissionAdmin),
			OpenWorldHint: mcp.ToBoolPtr(true),
		},
	}
}

// convertToMCPResult turns a dispatch outcome into a CallToolResult. Failures
// become tool errors so the host can show them to the model.
func convertToMCPResult(result api.ToolResult) *mcp.CallToolResult {
	if !result.Success {
		return mcp.NewToolResultError(formatToolError(result.Error))
	}
	text, err := result.Text()
	if err != nil {
		return mcp.NewToolResultError(formatToolError(&api.ToolError{Kind: api.KindInternal, Message: err.Error()}))
	}
	return mcp.NewToolResultText(text)
}

func formatToolError(te *api.ToolError) string {
	if te == nil {
		return "[internal] tool failed without an error"
	}
	msg := "[" + string(te.Kind) + "] " + te.Message
	if te.Retryable {
		msg += " (retryable)"
	}
	return msg
}
