package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"nmc-mcp/internal/api"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersion(t *testing.T) {
	original := GetVersion()
	defer SetVersion(original)

	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", rootCmd.Version)
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "nmc-mcp", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)

	for _, flag := range []string{"debug", "env-file", "config"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "nmc-mcp version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	require.NoError(t, testCmd.Execute())
	assert.Equal(t, "nmc-mcp version 1.0.0\n", buf.String())
}

func TestSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, expected := range []string{"version", "serve", "check", "list", "test"} {
		assert.True(t, found[expected], "subcommand %s", expected)
	}
}

func TestGetExitCode(t *testing.T) {
	cfgErr := &api.ConfigError{}
	cfgErr.Add("NMC_USERNAME", "is required")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitCodeSuccess},
		{"config", cfgErr, ExitCodeConfig},
		{"wrapped config", fmt.Errorf("failed to initialize application: %w", cfgErr), ExitCodeConfig},
		{"registration", &api.RegistrationError{Name: "list_filers", Message: "duplicate tool name"}, ExitCodeRegistration},
		{"auth", fmt.Errorf("connectivity check failed: %w", &api.AuthError{Message: "rejected"}), ExitCodeAuthFailed},
		{"transient", &api.TransientError{Message: "503", Attempts: 3}, ExitCodeError},
		{"plain", errors.New("boom"), ExitCodeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}
