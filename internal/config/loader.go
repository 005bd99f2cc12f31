package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/pkg/logging"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable that points at an optional
// YAML or TOML config file.
const ConfigFileEnv = "NMC_CONFIG"

// LoadOptions controls where Load reads settings from.
type LoadOptions struct {
	// EnvFile is a dotenv file. Empty means DefaultEnvFile, which may be absent.
	EnvFile string
	// ConfigFile is a YAML (.yaml/.yml) or TOML (.toml) file. Empty falls back
	// to the NMC_CONFIG environment variable.
	ConfigFile string
	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// Overrides take precedence over every other source. Keys are the
	// primary environment variable names, e.g. MCP_TRANSPORT.
	Overrides map[string]string
}

// setting binds one environment variable (plus legacy aliases and a config
// file key) to a Config field.
type setting struct {
	env     string
	aliases []string
	fileKey string
	apply   func(c *Config, raw string) error
}

var settings = []setting{
	{env: "API_BASE_URL", aliases: []string{"FILERS_API_URL"}, fileKey: "base_url", apply: func(c *Config, v string) error {
		c.BaseURL = strings.TrimRight(strings.TrimSpace(v), "/")
		return nil
	}},
	{env: "NMC_USERNAME", aliases: []string{"FILERS_USERNAME"}, fileKey: "username", apply: func(c *Config, v string) error {
		c.Username = v
		return nil
	}},
	{env: "NMC_PASSWORD", aliases: []string{"FILERS_PASSWORD"}, fileKey: "password", apply: func(c *Config, v string) error {
		c.Password = v
		return nil
	}},
	{env: "VERIFY_SSL", fileKey: "verify_ssl", apply: boolSetter(func(c *Config) *bool { return &c.VerifySSL })},
	{env: "API_TIMEOUT", fileKey: "timeout", apply: durationSetter(func(c *Config) *time.Duration { return &c.Timeout })},
	{env: "NMC_AUTH_SCHEME", fileKey: "auth_scheme", apply: func(c *Config, v string) error {
		c.AuthScheme = strings.TrimSpace(v)
		return nil
	}},
	{env: "NMC_RATE_LIMIT", fileKey: "rate_limit", apply: intSetter(func(c *Config) *int { return &c.RateLimit })},
	{env: "NMC_RATE_WINDOW", fileKey: "rate_window", apply: durationSetter(func(c *Config) *time.Duration { return &c.RateWindow })},
	{env: "NMC_TOKEN_EXPIRY_MARGIN", fileKey: "token_expiry_margin", apply: durationSetter(func(c *Config) *time.Duration { return &c.TokenExpiryMargin })},
	{env: "NMC_TOKEN_REFRESH_WINDOW", fileKey: "token_refresh_window", apply: durationSetter(func(c *Config) *time.Duration { return &c.TokenRefreshWindow })},
	{env: "NMC_TOKEN_LIFETIME", fileKey: "token_lifetime", apply: durationSetter(func(c *Config) *time.Duration { return &c.TokenDefaultLifetime })},
	{env: "NMC_RETRY_MAX_ATTEMPTS", fileKey: "retry_max_attempts", apply: intSetter(func(c *Config) *int { return &c.RetryMaxAttempts })},
	{env: "NMC_RETRY_BASE_DELAY", fileKey: "retry_base_delay", apply: durationSetter(func(c *Config) *time.Duration { return &c.RetryBaseDelay })},
	{env: "NMC_RETRY_MAX_DELAY", fileKey: "retry_max_delay", apply: durationSetter(func(c *Config) *time.Duration { return &c.RetryMaxDelay })},
	{env: "NMC_MAX_CONCURRENCY", fileKey: "max_concurrency", apply: intSetter(func(c *Config) *int { return &c.MaxConcurrency })},
	{env: "NMC_TOKEN_CACHE_URL", fileKey: "token_cache_url", apply: func(c *Config, v string) error {
		c.TokenCacheURL = strings.TrimSpace(v)
		return nil
	}},
	{env: "DEBUG", fileKey: "debug", apply: boolSetter(func(c *Config) *bool { return &c.Debug })},
	{env: "LOG_LEVEL", fileKey: "log_level", apply: func(c *Config, v string) error {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
		return nil
	}},
	{env: "LOG_FORMAT", fileKey: "log_format", apply: func(c *Config, v string) error {
		c.LogFormat = strings.ToLower(strings.TrimSpace(v))
		return nil
	}},
	{env: "MCP_SERVER_NAME", fileKey: "server_name", apply: func(c *Config, v string) error {
		c.Server.Name = v
		return nil
	}},
	{env: "MCP_TRANSPORT", fileKey: "transport", apply: func(c *Config, v string) error {
		c.Server.Transport = strings.ToLower(strings.TrimSpace(v))
		return nil
	}},
	{env: "MCP_ADDR", fileKey: "addr", apply: func(c *Config, v string) error {
		c.Server.Addr = v
		return nil
	}},
	{env: "METRICS_ADDR", fileKey: "metrics_addr", apply: func(c *Config, v string) error {
		c.Server.MetricsAddr = v
		return nil
	}},
}

// Load builds the configuration from defaults, an optional config file, an
// optional dotenv file and the process environment, in increasing order of
// precedence. Every problem found is reported in a single *api.ConfigError.
func Load(opts LoadOptions) (Config, error) {
	lookupEnv := opts.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	cfgErr := &api.ConfigError{}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile, _ = lookupEnv(ConfigFileEnv)
	}
	fileValues, err := readConfigFile(configFile)
	if err != nil {
		cfgErr.Add(ConfigFileEnv, "%v", err)
		return Config{}, cfgErr
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		cfgErr.Add("env-file", "%v", err)
		return Config{}, cfgErr
	}

	lookup := func(s setting) (string, bool) {
		if v, ok := opts.Overrides[s.env]; ok && v != "" {
			return v, true
		}
		for _, key := range append([]string{s.env}, s.aliases...) {
			if v, ok := lookupEnv(key); ok && v != "" {
				return v, true
			}
			if v, ok := dotenv[key]; ok && v != "" {
				return v, true
			}
		}
		if v, ok := fileValues[s.fileKey]; ok {
			return v, true
		}
		return "", false
	}

	cfg := Defaults()
	for _, s := range settings {
		raw, ok := lookup(s)
		if !ok {
			continue
		}
		if err := s.apply(&cfg, raw); err != nil {
			cfgErr.Add(s.env, "%v", err)
		}
	}

	validate(cfg, cfgErr)
	if cfgErr.HasProblems() {
		return Config{}, cfgErr
	}

	logging.Debug("Config", "Loaded configuration for %s (user %s, verify_ssl=%t, timeout=%v)",
		cfg.BaseURL, cfg.Username, cfg.VerifySSL, cfg.Timeout)
	return cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("error loading env file %s: %w", path, err)
	}
	logging.Debug("Config", "Loaded %d values from %s", len(values), path)
	return values, nil
}

// readConfigFile flattens a YAML or TOML document into file-key -> string.
func readConfigFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	raw := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("error loading config from %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[strings.ToLower(k)] = fmt.Sprint(v)
	}
	logging.Info("Config", "Loaded configuration file %s", path)
	return values, nil
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, raw string) error {
		b, err := parseBool(raw)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, raw string) error {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%q is not an integer", raw)
		}
		*field(c) = n
		return nil
	}
}

func durationSetter(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, raw string) error {
		d, err := parseDuration(raw)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on", "y":
		return true, nil
	case "0", "false", "no", "off", "n":
		return false, nil
	default:
		return false, fmt.Errorf("%q is not a boolean", raw)
	}
}

// parseDuration accepts Go duration strings ("90s", "10m") or bare seconds
// ("30", "1.5").
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a duration", raw)
	}
	return d, nil
}
