package formatting

import (
	"fmt"
	"strings"
	"time"

	"nmc-mcp/internal/api"
)

// ConsoleFormatter provides simple console output formatting
type ConsoleFormatter struct {
	options Options
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(options Options) Formatter {
	return &ConsoleFormatter{
		options: options,
	}
}

// FormatTools formats the tool catalog for console output
func (f *ConsoleFormatter) FormatTools(tools []api.ToolDescriptor) error {
	if len(tools) == 0 {
		return f.println("No tools registered.")
	}

	var output []string
	if !f.options.Quiet {
		output = append(output, fmt.Sprintf("Registered tools (%d):", len(tools)))
	}
	for i, tool := range tools {
		output = append(output, fmt.Sprintf("  %d. %-34s - %s", i+1, tool.Name, tool.Description))
		if len(tool.Parameters) > 0 && !f.options.Quiet {
			output = append(output, fmt.Sprintf("       %s", paramSignature(tool.Parameters)))
		}
	}
	return f.println(strings.Join(output, "\n"))
}

// FormatChecks formats connectivity check steps, one line per step
func (f *ConsoleFormatter) FormatChecks(steps []CheckStep) error {
	var output []string
	for _, s := range steps {
		line := fmt.Sprintf("%s %-12s %v", status(s.OK), s.Name, s.Duration.Round(time.Millisecond))
		if s.Detail != "" {
			line += "  " + s.Detail
		}
		output = append(output, line)
	}
	return f.println(strings.Join(output, "\n"))
}

// FormatTestResults formats self-test outcomes followed by a summary line
func (f *ConsoleFormatter) FormatTestResults(outcomes []TestOutcome) error {
	var output []string
	for _, o := range outcomes {
		line := fmt.Sprintf("%s %-34s %v", status(o.OK), o.Tool, o.Duration.Round(time.Millisecond))
		if !o.OK {
			line += fmt.Sprintf("  [%s] %s", o.Kind, o.Message)
		}
		output = append(output, line)
	}
	passed, failed := testSummary(outcomes)
	output = append(output, fmt.Sprintf("\n%d passed, %d failed", passed, failed))
	return f.println(strings.Join(output, "\n"))
}

// FormatData formats generic data (fallback to simple text representation)
func (f *ConsoleFormatter) FormatData(data interface{}) error {
	if s, ok := data.(string); ok {
		return f.println(s)
	}
	return f.println(PrettyJSON(data))
}

// SetOptions updates the formatter options
func (f *ConsoleFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *ConsoleFormatter) GetOptions() Options {
	return f.options
}

func (f *ConsoleFormatter) println(s string) error {
	_, err := fmt.Fprintln(f.options.writer(), s)
	return err
}

func status(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
