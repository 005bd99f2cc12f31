package config

import "time"

const (
	// DefaultServerName is the MCP server name advertised to the host.
	DefaultServerName = "nasuni-management-mcp-server"

	// DefaultAuthScheme is the Authorization scheme NMC expects.
	DefaultAuthScheme = "Token"

	// DefaultAddr is the listen address for the streamable-http transport.
	DefaultAddr = "127.0.0.1:8090"

	// DefaultEnvFile is loaded when present; a missing file is not an error.
	DefaultEnvFile = ".env"
)

// Defaults returns the configuration used before any file or environment
// value is applied. Credentials have no default.
func Defaults() Config {
	return Config{
		VerifySSL:            false,
		Timeout:              30 * time.Second,
		AuthScheme:           DefaultAuthScheme,
		RateLimit:            5,
		RateWindow:           time.Second,
		TokenExpiryMargin:    60 * time.Second,
		TokenRefreshWindow:   10 * time.Minute,
		TokenDefaultLifetime: time.Hour,
		RetryMaxAttempts:     3,
		RetryBaseDelay:       time.Second,
		RetryMaxDelay:        8 * time.Second,
		MaxConcurrency:       10,
		LogLevel:             "info",
		LogFormat:            "text",
		Server: ServerConfig{
			Name:      DefaultServerName,
			Transport: MCPTransportStdio,
			Addr:      DefaultAddr,
		},
	}
}
