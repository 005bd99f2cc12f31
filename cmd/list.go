package cmd

import (
	"nmc-mcp/internal/app"

	"github.com/spf13/cobra"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tools the server advertises",
	Long: `Prints every registered tool with its parameters. Required parameters are
marked with '*'. No configuration or network access is needed.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter(listOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	catalog, err := app.Catalog()
	if err != nil {
		return err
	}
	return formatter.FormatTools(catalog)
}

func init() {
	rootCmd.AddCommand(listCmd)
	addOutputFlag(listCmd, &listOutput, "table")
}
