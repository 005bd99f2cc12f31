package formatting

import (
	"fmt"
	"sort"
	"time"

	"nmc-mcp/internal/api"
	pkgstrings "nmc-mcp/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatTools formats the tool catalog as a table
func (f *TableFormatter) FormatTools(tools []api.ToolDescriptor) error {
	if len(tools) == 0 {
		return f.formatEmptyMessage("📋", "No tools registered")
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("NAME"), f.header("PARAMETERS"), f.header("DESCRIPTION")})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 50},
		{Number: 3, WidthMax: pkgstrings.DefaultDescriptionMaxLen},
	})
	for _, tool := range tools {
		t.AppendRow(table.Row{f.colorize(text.FgHiCyan, tool.Name), paramSignature(tool.Parameters), tool.Description})
	}
	if !f.options.Quiet {
		t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d tools", len(tools))})
	}
	t.Render()
	return nil
}

// FormatChecks formats connectivity check steps as a table
func (f *TableFormatter) FormatChecks(steps []CheckStep) error {
	t := f.createTable()
	t.AppendHeader(table.Row{f.header("STEP"), f.header("RESULT"), f.header("TIME"), f.header("DETAIL")})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 80}})
	for _, s := range steps {
		t.AppendRow(table.Row{s.Name, f.result(s.OK), s.Duration.Round(time.Millisecond), s.Detail})
	}
	t.Render()
	return nil
}

// FormatTestResults formats self-test outcomes as a table, failures last
func (f *TableFormatter) FormatTestResults(outcomes []TestOutcome) error {
	if len(outcomes) == 0 {
		return f.formatEmptyMessage("📋", "No tools selected")
	}

	sorted := append([]TestOutcome(nil), outcomes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OK != sorted[j].OK {
			return sorted[i].OK
		}
		return sorted[i].Tool < sorted[j].Tool
	})

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("TOOL"), f.header("RESULT"), f.header("TIME"), f.header("ERROR")})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 70}})
	for _, o := range sorted {
		errText := ""
		if !o.OK {
			errText = fmt.Sprintf("[%s] %s", o.Kind, pkgstrings.TruncateDescription(o.Message, 200))
		}
		t.AppendRow(table.Row{o.Tool, f.result(o.OK), o.Duration.Round(time.Millisecond), errText})
	}
	passed, failed := testSummary(outcomes)
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d passed, %d failed", passed, failed)})
	t.Render()
	return nil
}

// FormatData formats generic data using table logic
func (f *TableFormatter) FormatData(data interface{}) error {
	switch d := data.(type) {
	case map[string]interface{}:
		return f.formatObjectData(d)
	case []interface{}:
		return f.formatArrayData(d)
	case string:
		_, err := fmt.Fprintln(f.options.writer(), d)
		return err
	default:
		_, err := fmt.Fprintln(f.options.writer(), PrettyJSON(d))
		return err
	}
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// Helper methods

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.writer())
	if f.options.Color {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func (f *TableFormatter) colorize(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

func (f *TableFormatter) header(s string) string {
	return f.colorize(text.FgHiCyan, s)
}

func (f *TableFormatter) result(ok bool) string {
	if ok {
		return f.colorize(text.FgGreen, "PASS")
	}
	return f.colorize(text.FgRed, "FAIL")
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(icon, message string) error {
	_, err := fmt.Fprintf(f.options.writer(), "%s %s\n", f.colorize(text.FgYellow, icon), f.colorize(text.FgYellow, message))
	return err
}

// formatObjectData formats object data as sorted key-value pairs
func (f *TableFormatter) formatObjectData(data map[string]interface{}) error {
	t := f.createTable()
	t.AppendHeader(table.Row{f.header("KEY"), f.header("VALUE")})

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		t.AppendRow(table.Row{f.colorize(text.FgHiCyan, key), pkgstrings.TruncateDescription(fmt.Sprintf("%v", data[key]), 100)})
	}

	t.Render()
	return nil
}

// formatArrayData formats array data as a numbered list
func (f *TableFormatter) formatArrayData(data []interface{}) error {
	if len(data) == 0 {
		return f.formatEmptyMessage("📋", "No items found")
	}

	w := f.options.writer()
	for i, item := range data {
		fmt.Fprintf(w, "  %d. %v\n", i+1, item)
	}
	_, err := fmt.Fprintf(w, "\n%s %s %s\n",
		f.colorize(text.FgHiBlue, "Total:"),
		f.colorize(text.FgHiWhite, fmt.Sprint(len(data))),
		f.colorize(text.FgHiBlue, "items"))
	return err
}
