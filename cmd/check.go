package cmd

import (
	"fmt"

	"nmc-mcp/internal/app"

	"github.com/spf13/cobra"
)

var checkOutput string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to the NMC",
	Long: `Logs in to the NMC with the configured credentials and lists one filer,
printing the result of each step. Exits non-zero when a step fails; a rejected
login exits with code 4.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter(checkOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	application, err := app.NewApplication(appConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	steps, checkErr := application.Check(commandContext(cmd))
	if err := formatter.FormatChecks(steps); err != nil {
		return err
	}
	if checkErr != nil {
		return fmt.Errorf("connectivity check failed: %w", checkErr)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addOutputFlag(checkCmd, &checkOutput, "console")
}
