package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/testing/mock"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setNMCEnv points the process environment at a mock NMC.
func setNMCEnv(t *testing.T) *mock.NMCServer {
	t.Helper()
	srv, err := mock.NewNMCServer()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("NMC_USERNAME", mock.NMCUsername)
	t.Setenv("NMC_PASSWORD", mock.NMCPassword)
	t.Setenv("NMC_RETRY_BASE_DELAY", "1ms")
	t.Setenv("NMC_RETRY_MAX_DELAY", "2ms")
	t.Setenv("NMC_RATE_LIMIT", "1000")
	t.Setenv("NMC_RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("NMC_TOKEN_CACHE_URL", "")
	t.Setenv("NMC_CONFIG", "")
	return srv
}

func captureOutput(c *cobra.Command) *bytes.Buffer {
	var buf bytes.Buffer
	c.SetOut(&buf)
	return &buf
}

func TestList_JSON(t *testing.T) {
	listOutput = "json"
	defer func() { listOutput = "table" }()

	buf := captureOutput(listCmd)
	require.NoError(t, runList(listCmd, nil))

	var out struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 39, out.Count)
	assert.Equal(t, "analyze_credential_usage", out.Tools[0].Name)
}

func TestList_UnknownFormat(t *testing.T) {
	listOutput = "xml"
	defer func() { listOutput = "table" }()

	assert.Error(t, runList(listCmd, nil))
}

func TestCheck_Passes(t *testing.T) {
	srv := setNMCEnv(t)
	checkOutput = "console"

	buf := captureOutput(checkCmd)
	require.NoError(t, runCheck(checkCmd, nil))
	assert.Contains(t, buf.String(), "PASS")
	assert.NotContains(t, buf.String(), "FAIL")
	assert.Equal(t, 1, srv.Logins())
}

func TestCheck_RejectedLoginExitsWithAuthCode(t *testing.T) {
	srv := setNMCEnv(t)
	srv.FailLogin(&mock.ScriptedFailure{Status: 401, Detail: "Invalid credentials"})
	checkOutput = "console"

	buf := captureOutput(checkCmd)
	err := runCheck(checkCmd, nil)
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
	assert.Equal(t, ExitCodeAuthFailed, getExitCode(err))
	assert.Contains(t, buf.String(), "FAIL")
}

func TestCheck_MissingConfig(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("NMC_USERNAME", "")
	t.Setenv("NMC_PASSWORD", "")

	err := runCheck(checkCmd, nil)
	require.Error(t, err)
	assert.Equal(t, ExitCodeConfig, getExitCode(err))
}

func TestSelfTestCommand(t *testing.T) {
	setNMCEnv(t)
	testOutput = "json"
	testTools = []string{"list_filers", "get_filer"}
	defer func() {
		testOutput = "table"
		testTools = nil
	}()

	buf := captureOutput(testCmd)
	require.NoError(t, runSelfTest(testCmd, nil))

	var out struct {
		Passed int `json:"passed"`
		Failed int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.Passed)
	assert.Zero(t, out.Failed)
}

func TestSelfTestCommand_FailureIsAnError(t *testing.T) {
	srv := setNMCEnv(t)
	srv.FailNext("/api/v1.2/filers/", 503, 503)
	testOutput = "console"
	testTools = []string{"list_filers"}
	defer func() {
		testOutput = "table"
		testTools = nil
	}()

	buf := captureOutput(testCmd)
	err := runSelfTest(testCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 tools failed")
	assert.Contains(t, buf.String(), "[transient]")
}
