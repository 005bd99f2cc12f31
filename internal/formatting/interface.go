// Package formatting renders CLI output: the tool catalog, connectivity
// check steps, self-test outcomes and arbitrary payloads.
//
// The same data can be printed as a rich table, plain console lines, JSON
// or YAML, selected with the --output flag.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"nmc-mcp/internal/api"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console" // Simple console output
	FormatJSON    OutputFormat = "json"    // JSON output
	FormatYAML    OutputFormat = "yaml"    // YAML output
	FormatTable   OutputFormat = "table"   // Rich table output
)

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
	// Output defaults to os.Stdout.
	Output io.Writer
}

func (o Options) writer() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

// Formatter renders CLI results.
type Formatter interface {
	FormatTools(tools []api.ToolDescriptor) error
	FormatChecks(steps []CheckStep) error
	FormatTestResults(outcomes []TestOutcome) error

	// FormatData renders an arbitrary payload, e.g. a tool result.
	FormatData(data interface{}) error

	SetOptions(options Options)
	GetOptions() Options
}

// ParseFormat validates a --output value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatConsole, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, console, json or yaml)", s)
	}
}

// Factory creates formatters for different output formats
type Factory interface {
	CreateFormatter(options Options) Formatter
}

// NewFactory creates a new formatter factory
func NewFactory() Factory {
	return &factory{}
}

type factory struct{}

// CreateFormatter creates the appropriate formatter based on options
func (f *factory) CreateFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		return NewTableFormatter(options)
	case FormatConsole:
		fallthrough
	default:
		return NewConsoleFormatter(options)
	}
}
