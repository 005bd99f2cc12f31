package cmd

import (
	"context"
	"os"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/app"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates missing or invalid configuration.
	ExitCodeConfig = 2
	// ExitCodeRegistration indicates an inconsistent tool catalog.
	ExitCodeRegistration = 3
	// ExitCodeAuthFailed indicates the NMC rejected the credentials.
	ExitCodeAuthFailed = 4
)

// Flags shared by every command that talks to the NMC.
var (
	rootDebug      bool
	rootEnvFile    string
	rootConfigFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nmc-mcp",
	Short: "MCP server for the Nasuni Management Console API",
	Long: `nmc-mcp exposes a Nasuni Management Console (NMC) to AI assistants over the
Model Context Protocol. Filers, volumes, shares, health, cloud credentials and
notifications are available as read-only tools.

Configuration comes from the environment (API_BASE_URL, NMC_USERNAME,
NMC_PASSWORD, ...), an optional .env file and an optional YAML or TOML config
file. Logs are written to stderr.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "nmc-mcp version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case api.IsConfigError(err):
		return ExitCodeConfig
	case api.IsRegistrationError(err):
		return ExitCodeRegistration
	case api.IsAuthError(err):
		return ExitCodeAuthFailed
	default:
		return ExitCodeError
	}
}

// appConfig builds the bootstrap configuration from the shared flags.
func appConfig() *app.Config {
	return app.NewConfig(rootDebug, rootEnvFile, rootConfigFile, GetVersion())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootEnvFile, "env-file", "", "dotenv file to load (default ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&rootConfigFile, "config", "", "YAML or TOML config file (default $NMC_CONFIG)")
}
