package formatting

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"nmc-mcp/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleTools() []api.ToolDescriptor {
	noop := func(ctx context.Context, args api.Args) (interface{}, error) { return nil, nil }
	return []api.ToolDescriptor{
		{Name: "get_filer", Description: "Gets one filer", Permission: api.PermissionRead, Handler: noop,
			Parameters: []api.ParameterMetadata{{Name: "identifier", Type: api.TypeString, Required: true}}},
		{Name: "list_filers", Description: "Lists filers", Permission: api.PermissionRead, Handler: noop},
	}
}

func sampleOutcomes() []TestOutcome {
	return []TestOutcome{
		{Tool: "list_filers", OK: true, Duration: 12 * time.Millisecond},
		{Tool: "get_filer", OK: false, Kind: api.KindNotFound, Message: "filer 'placeholder' not found", Duration: 3 * time.Millisecond},
	}
}

func newFormatter(format OutputFormat) (Formatter, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewFactory().CreateFormatter(Options{Format: format, Output: &buf}), &buf
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatTable, "JSON": FormatJSON, " yaml ": FormatYAML, "console": FormatConsole} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	assert.IsType(t, &JSONFormatter{}, f.CreateFormatter(Options{Format: FormatJSON}))
	assert.IsType(t, &YAMLFormatter{}, f.CreateFormatter(Options{Format: FormatYAML}))
	assert.IsType(t, &TableFormatter{}, f.CreateFormatter(Options{Format: FormatTable}))
	assert.IsType(t, &ConsoleFormatter{}, f.CreateFormatter(Options{}))

	formatter := f.CreateFormatter(Options{Format: FormatJSON})
	formatter.SetOptions(Options{Format: FormatJSON, Quiet: true})
	assert.True(t, formatter.GetOptions().Quiet)
}

func TestJSONFormatter_Tools(t *testing.T) {
	f, buf := newFormatter(FormatJSON)
	require.NoError(t, f.FormatTools(sampleTools()))

	var out struct {
		Count int `json:"count"`
		Tools []struct {
			Name       string `json:"name"`
			Parameters []struct {
				Name     string `json:"name"`
				Required bool   `json:"required"`
			} `json:"parameters"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "get_filer", out.Tools[0].Name)
	assert.True(t, out.Tools[0].Parameters[0].Required)
}

func TestJSONFormatter_TestResults(t *testing.T) {
	f, buf := newFormatter(FormatJSON)
	require.NoError(t, f.FormatTestResults(sampleOutcomes()))

	var out struct {
		Passed  int `json:"passed"`
		Failed  int `json:"failed"`
		Results []struct {
			Tool     string `json:"tool"`
			Kind     string `json:"kind"`
			Duration int    `json:"duration_ms"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 1, out.Passed)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 12, out.Results[0].Duration)
	assert.Equal(t, "not_found", out.Results[1].Kind)
}

func TestJSONFormatter_DataReindentsJSONStrings(t *testing.T) {
	f, buf := newFormatter(FormatJSON)
	require.NoError(t, f.FormatData(`{"a":1}`))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	f, buf := newFormatter(FormatYAML)
	require.NoError(t, f.FormatChecks([]CheckStep{
		{Name: "login", OK: true, Duration: 40 * time.Millisecond},
		{Name: "list filers", OK: false, Detail: "503"},
	}))

	var out struct {
		OK    bool `yaml:"ok"`
		Steps []struct {
			Name   string `yaml:"name"`
			Detail string `yaml:"detail"`
		} `yaml:"steps"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.False(t, out.OK)
	assert.Equal(t, "503", out.Steps[1].Detail)

	buf.Reset()
	require.NoError(t, f.FormatData(struct {
		TotalFilers int `json:"total_filers"`
	}{3}))
	assert.Equal(t, "total_filers: 3\n", buf.String())
}

func TestTableFormatter(t *testing.T) {
	f, buf := newFormatter(FormatTable)
	require.NoError(t, f.FormatTools(sampleTools()))
	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "identifier*: string")
	assert.Contains(t, out, "2 tools")

	buf.Reset()
	require.NoError(t, f.FormatTestResults(sampleOutcomes()))
	out = buf.String()
	assert.Contains(t, out, "1 passed, 1 failed")
	assert.Contains(t, out, "[not_found]")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("list_filers")), bytes.Index(buf.Bytes(), []byte("get_filer")), "failures are listed last")

	buf.Reset()
	require.NoError(t, f.FormatTools(nil))
	assert.Contains(t, buf.String(), "No tools registered")
}

func TestConsoleFormatter(t *testing.T) {
	f, buf := newFormatter(FormatConsole)
	require.NoError(t, f.FormatChecks([]CheckStep{{Name: "login", OK: true}, {Name: "list filers", OK: false, Detail: "timeout"}}))
	out := buf.String()
	assert.Contains(t, out, "PASS login")
	assert.Contains(t, out, "FAIL list filers")
	assert.Contains(t, out, "timeout")

	buf.Reset()
	require.NoError(t, f.FormatData(map[string]interface{}{"ok": true}))
	assert.Equal(t, "{\n  \"ok\": true\n}\n", buf.String())
}
