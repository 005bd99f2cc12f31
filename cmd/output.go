package cmd

import (
	"io"

	"nmc-mcp/internal/formatting"

	"github.com/spf13/cobra"
)

// addOutputFlag registers -o/--output on cmd.
func addOutputFlag(cmd *cobra.Command, target *string, def string) {
	cmd.Flags().StringVarP(target, "output", "o", def, "Output format: table, console, json or yaml")
}

// newFormatter creates a formatter for the --output value writing to w.
func newFormatter(output string, w io.Writer) (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(output)
	if err != nil {
		return nil, err
	}
	return formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: format,
		Output: w,
	}), nil
}
