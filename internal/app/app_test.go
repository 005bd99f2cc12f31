package app

import (
	"context"
	"testing"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/testing/mock"
	"nmc-mcp/internal/tokenstore"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func testEnv(baseURL string) map[string]string {
	return map[string]string{
		"API_BASE_URL":           baseURL,
		"NMC_USERNAME":           mock.NMCUsername,
		"NMC_PASSWORD":           mock.NMCPassword,
		"NMC_RETRY_BASE_DELAY":   "1ms",
		"NMC_RETRY_MAX_DELAY":    "2ms",
		"NMC_RATE_LIMIT":         "1000",
		"NMC_RETRY_MAX_ATTEMPTS": "2",
	}
}

func newTestApp(t *testing.T, env map[string]string) *Application {
	t.Helper()
	cfg := NewConfig(false, "", "", "test")
	cfg.LookupEnv = envLookup(env)
	application, err := NewApplication(cfg)
	require.NoError(t, err)
	t.Cleanup(application.Close)
	return application
}

func newMockNMC(t *testing.T) *mock.NMCServer {
	t.Helper()
	srv, err := mock.NewNMCServer()
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewApplication_ConfigErrors(t *testing.T) {
	cfg := NewConfig(false, "", "", "test")
	cfg.LookupEnv = envLookup(map[string]string{})
	_, err := NewApplication(cfg)
	require.True(t, api.IsConfigError(err), "got %v", err)

	env := testEnv("https://nmc.example.com")
	env["NMC_TOKEN_CACHE_URL"] = "ftp://cache"
	cfg = NewConfig(false, "", "", "test")
	cfg.LookupEnv = envLookup(env)
	_, err = NewApplication(cfg)
	assert.True(t, api.IsConfigError(err), "got %v", err)
}

func TestNewApplication_Overrides(t *testing.T) {
	cfg := NewConfig(true, "", "", "test")
	cfg.LookupEnv = envLookup(testEnv("https://nmc.example.com"))
	cfg.Override("MCP_TRANSPORT", "streamable-http")
	cfg.Override("METRICS_ADDR", "")
	application, err := NewApplication(cfg)
	require.NoError(t, err)
	defer application.Close()

	settings := application.Services().Settings
	assert.Equal(t, "streamable-http", settings.Server.Transport)
	assert.Empty(t, settings.Server.MetricsAddr)
}

func TestNewApplication_RegistersCatalog(t *testing.T) {
	application := newTestApp(t, testEnv("https://nmc.example.com"))
	reg := application.Services().Registry

	_, ok := reg.Get("list_filers")
	assert.True(t, ok)
	_, ok = reg.Get("get_server_config")
	assert.True(t, ok)
	assert.Equal(t, 39, reg.Len())
}

func TestConfigAdapter_RedactsPassword(t *testing.T) {
	application := newTestApp(t, testEnv("https://nmc.example.com"))

	result := application.Services().Registry.Dispatch(context.Background(), "get_server_config", nil)
	require.True(t, result.Success)
	view := result.Payload.(configView)
	assert.Equal(t, "https://nmc.example.com", view.BaseURL)
	assert.Equal(t, "********", view.Password)
	assert.Equal(t, "memory", view.TokenCache)
	assert.Equal(t, "stdio", view.Transport)
	assert.Empty(t, view.Addr)

	text, err := result.Text()
	require.NoError(t, err)
	assert.NotContains(t, text, mock.NMCPassword)
}

func TestCheck(t *testing.T) {
	srv := newMockNMC(t)
	application := newTestApp(t, testEnv(srv.URL))

	steps, err := application.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for _, s := range steps {
		assert.True(t, s.OK, "%s: %s", s.Name, s.Detail)
	}
	assert.Contains(t, steps[2].Detail, "returned 1 item(s) of 2")
	assert.Equal(t, 1, srv.Logins())

	require.Equal(t, 1, srv.RequestCount("/api/v1.2/filers/"))
	for _, r := range srv.Requests() {
		if r.Path == "/api/v1.2/filers/" {
			assert.Contains(t, r.Query, "limit=1")
		}
	}
}

func TestCheck_LoginRejected(t *testing.T) {
	srv := newMockNMC(t)
	srv.FailLogin(&mock.ScriptedFailure{Status: 401, Detail: "Invalid credentials"})
	application := newTestApp(t, testEnv(srv.URL))

	steps, err := application.Check(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
	require.Len(t, steps, 2)
	assert.False(t, steps[1].OK)
	assert.Zero(t, srv.RequestCount("/api/v1.2/filers/"))
}

func TestCheck_SharesTokenThroughRedis(t *testing.T) {
	srv := newMockNMC(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	env := testEnv(srv.URL)
	env["NMC_TOKEN_CACHE_URL"] = "redis://" + mr.Addr() + "/0"
	first := newTestApp(t, env)
	_, err = first.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, mr.Exists(tokenstore.AccountKey(srv.URL, mock.NMCUsername)))

	// A second process adopts the cached token instead of logging in.
	second := newTestApp(t, env)
	result := second.Services().Registry.Dispatch(context.Background(), "list_filers", nil)
	require.True(t, result.Success, "%+v", result.Error)
	assert.Equal(t, 1, srv.Logins())
}

func TestSelfTest(t *testing.T) {
	srv := newMockNMC(t)
	application := newTestApp(t, testEnv(srv.URL))

	outcomes, err := application.SelfTest(context.Background(), SelfTestOptions{Parallelism: 3})
	require.NoError(t, err)
	require.Len(t, outcomes, 39)
	for _, o := range outcomes {
		assert.True(t, o.OK, "%s: [%s] %s", o.Tool, o.Kind, o.Message)
	}
	assert.Equal(t, "analyze_credential_usage", outcomes[0].Tool, "catalog order")
}

func TestSelfTest_SelectedTools(t *testing.T) {
	srv := newMockNMC(t)
	application := newTestApp(t, testEnv(srv.URL))

	outcomes, err := application.SelfTest(context.Background(), SelfTestOptions{Tools: []string{"list_filers", "list_filers", "get_filer"}})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "list_filers", outcomes[0].Tool)
	assert.True(t, outcomes[1].OK, "not found on a placeholder identifier passes")
	assert.Equal(t, api.KindNotFound, outcomes[1].Kind)

	_, err = application.SelfTest(context.Background(), SelfTestOptions{Tools: []string{"nope"}})
	assert.True(t, api.IsNotFound(err))
}

func TestSelfTest_ReportsFailures(t *testing.T) {
	srv := newMockNMC(t)
	application := newTestApp(t, testEnv(srv.URL))
	srv.FailNext("/api/v1.2/filers/", 503, 503)

	outcomes, err := application.SelfTest(context.Background(), SelfTestOptions{Tools: []string{"list_filers"}})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].OK)
	assert.Equal(t, api.KindTransient, outcomes[0].Kind)
}

func TestSynthesizeArgs(t *testing.T) {
	desc := api.ToolDescriptor{Parameters: []api.ParameterMetadata{
		{Name: "serial", Type: api.TypeString, Required: true},
		{Name: "focus", Type: api.TypeString, Required: true, Enum: []string{"errors", "volumes"}},
		{Name: "id", Type: api.TypeInteger, Required: true},
		{Name: "ratio", Type: api.TypeNumber, Required: true},
		{Name: "force", Type: api.TypeBoolean, Required: true},
		{Name: "serials", Type: api.TypeArray, Required: true},
		{Name: "hours", Type: api.TypeInteger, Default: 24},
	}}

	args, synthesized := SynthesizeArgs(desc)
	assert.True(t, synthesized)
	assert.Equal(t, map[string]interface{}{
		"serial":  PlaceholderValue,
		"focus":   "errors",
		"id":      1,
		"ratio":   1.0,
		"force":   false,
		"serials": []interface{}{},
	}, args)

	args, synthesized = SynthesizeArgs(api.ToolDescriptor{})
	assert.False(t, synthesized)
	assert.Empty(t, args)
}

func TestCatalog_Offline(t *testing.T) {
	catalog, err := Catalog()
	require.NoError(t, err)
	require.Len(t, catalog, 39)
	for i := 1; i < len(catalog); i++ {
		assert.Less(t, catalog[i-1].Name, catalog[i].Name)
	}
}
