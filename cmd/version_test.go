package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	tests := []struct {
		version string
		want    string
	}{
		{"1.2.3-test", "nmc-mcp version 1.2.3-test\n"},
		{"", "nmc-mcp version dev\n"},
	}
	for _, tt := range tests {
		rootCmd.Version = tt.version
		versionCmd := newVersionCmd()
		var buf bytes.Buffer
		versionCmd.SetOut(&buf)

		versionCmd.Run(versionCmd, nil)
		assert.Equal(t, tt.want, buf.String())
	}
}

func TestVersionCommandHelp(t *testing.T) {
	versionCmd := newVersionCmd()
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.SetErr(&buf)
	versionCmd.SetArgs([]string{"--help"})

	require.NoError(t, versionCmd.Execute())
	assert.Contains(t, buf.String(), "nmc-mcp's")
}
