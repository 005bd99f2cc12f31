package formatting

import (
	"encoding/json"
	"fmt"

	"nmc-mcp/internal/api"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatTools formats the tool catalog as JSON
func (f *JSONFormatter) FormatTools(tools []api.ToolDescriptor) error {
	return f.write(map[string]interface{}{
		"tools": toolViews(tools),
		"count": len(tools),
	})
}

// FormatChecks formats connectivity check steps as JSON
func (f *JSONFormatter) FormatChecks(steps []CheckStep) error {
	ok := true
	for _, s := range steps {
		ok = ok && s.OK
	}
	return f.write(map[string]interface{}{
		"steps": checkViews(steps),
		"ok":    ok,
	})
}

// FormatTestResults formats self-test outcomes as JSON
func (f *JSONFormatter) FormatTestResults(outcomes []TestOutcome) error {
	passed, failed := testSummary(outcomes)
	return f.write(map[string]interface{}{
		"results": testViews(outcomes),
		"passed":  passed,
		"failed":  failed,
	})
}

// FormatData formats generic data as JSON. A string that already holds JSON
// is re-indented rather than quoted.
func (f *JSONFormatter) FormatData(data interface{}) error {
	if s, ok := data.(string); ok && json.Valid([]byte(s)) {
		return f.write(json.RawMessage(s))
	}
	return f.write(data)
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}

func (f *JSONFormatter) write(data interface{}) error {
	var (
		jsonBytes []byte
		err       error
	)
	if f.options.Quiet {
		// Compact JSON for quiet mode
		jsonBytes, err = json.Marshal(data)
	} else {
		jsonBytes, err = json.MarshalIndent(data, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	_, err = fmt.Fprintln(f.options.writer(), string(jsonBytes))
	return err
}
