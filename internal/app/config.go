package app

// Config holds the application bootstrap options, typically taken from CLI
// flags. Settings that also exist as environment variables are passed as
// overrides and win over every other source.
type Config struct {
	// Debug forces debug logging regardless of LOG_LEVEL.
	Debug bool

	// EnvFile is a dotenv file; empty means ./.env when present.
	EnvFile string

	// ConfigFile is an optional YAML or TOML file.
	ConfigFile string

	// Overrides maps environment variable names to flag values.
	Overrides map[string]string

	// Version is reported to MCP hosts during initialization.
	Version string

	// LookupEnv replaces os.LookupEnv in tests.
	LookupEnv func(string) (string, bool)
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, envFile, configFile, version string) *Config {
	return &Config{
		Debug:      debug,
		EnvFile:    envFile,
		ConfigFile: configFile,
		Version:    version,
		Overrides:  map[string]string{},
	}
}

// Override sets a flag value for the named environment variable. Empty
// values are ignored so unset flags do not mask the environment.
func (c *Config) Override(env, value string) {
	if value == "" {
		return
	}
	if c.Overrides == nil {
		c.Overrides = map[string]string{}
	}
	c.Overrides[env] = value
}
