package cmd

import (
	"fmt"

	"nmc-mcp/internal/app"

	"github.com/spf13/cobra"
)

var (
	testTools       []string
	testParallelism int
	testOutput      string
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run every tool once against the configured NMC",
	Long: `Self-test: dispatches each registered tool with minimal arguments (required
parameters only, using the first enum value or a placeholder) and prints a
pass/fail line per tool. A not-found answer for a placeholder identifier
counts as a pass. Exits non-zero when any tool fails.`,
	Example: `  nmc-mcp test
  nmc-mcp test --tool list_filers --tool get_volume_stats -o json`,
	Args: cobra.NoArgs,
	RunE: runSelfTest,
}

func runSelfTest(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter(testOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	application, err := app.NewApplication(appConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	outcomes, err := application.SelfTest(commandContext(cmd), app.SelfTestOptions{
		Tools:       testTools,
		Parallelism: testParallelism,
	})
	if err != nil {
		return err
	}
	if err := formatter.FormatTestResults(outcomes); err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		if !o.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tools failed", failed, len(outcomes))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().StringSliceVar(&testTools, "tool", nil, "Only test the named tools (repeatable)")
	testCmd.Flags().IntVar(&testParallelism, "parallel", 4, "Maximum concurrent tool calls")
	addOutputFlag(testCmd, &testOutput, "table")
}
