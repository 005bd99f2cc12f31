package formatting

import (
	"strings"
	"testing"

	"nmc-mcp/internal/api"
)

func TestPrettyJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{
			name:     "simple object",
			input:    map[string]interface{}{"name": "test", "value": 42},
			expected: "{\n  \"name\": \"test\",\n  \"value\": 42\n}",
		},
		{
			name:     "array",
			input:    []string{"a", "b", "c"},
			expected: "[\n  \"a\",\n  \"b\",\n  \"c\"\n]",
		},
		{
			name:     "string",
			input:    "hello world",
			expected: "\"hello world\"",
		},
		{
			name:     "number",
			input:    123,
			expected: "123",
		},
		{
			name:     "boolean",
			input:    true,
			expected: "true",
		},
		{
			name:     "nil",
			input:    nil,
			expected: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PrettyJSON(tt.input)
			if result != tt.expected {
				t.Errorf("PrettyJSON() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestPrettyJSONWithInvalidData(t *testing.T) {
	// A channel cannot be marshaled, so the %v form is used.
	ch := make(chan int)
	result := PrettyJSON(ch)
	if !strings.HasPrefix(result, "0x") {
		t.Errorf("PrettyJSON() fallback = %q, want a pointer representation", result)
	}
}

func TestParamSignature(t *testing.T) {
	params := []api.ParameterMetadata{
		{Name: "filer_serial", Type: api.TypeString, Required: true},
		{Name: "priority", Type: api.TypeString, Enum: []string{"error", "info"}},
		{Name: "serials", Type: api.TypeArray, ItemType: api.TypeString},
		{Name: "hours", Type: api.TypeInteger, Default: 24},
	}
	want := "filer_serial*: string, priority: string (error|info), serials: array<string>, hours: integer = 24"
	if got := paramSignature(params); got != want {
		t.Errorf("paramSignature() = %q, want %q", got, want)
	}
	if got := paramSignature(nil); got != "-" {
		t.Errorf("paramSignature(nil) = %q, want %q", got, "-")
	}
} 