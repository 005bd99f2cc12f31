package config

import (
	"net/url"
	"time"
)

const (
	// MCPTransportStreamableHTTP is the streamable HTTP transport.
	MCPTransportStreamableHTTP = "streamable-http"
	// MCPTransportStdio is the standard I/O transport.
	MCPTransportStdio = "stdio"
)

// Config is the immutable process configuration. It is loaded once at
// startup by Load and passed by value afterwards.
type Config struct {
	// BaseURL is the NMC API root, without a trailing slash.
	BaseURL  string
	Username string
	Password string
	// VerifySSL enables TLS certificate verification. NMC appliances commonly
	// run with self-signed certificates, so it defaults to false.
	VerifySSL bool
	// Timeout bounds a single HTTP round trip, including the login exchange.
	Timeout time.Duration
	// AuthScheme is the Authorization header scheme sent with the token.
	AuthScheme string

	RateLimit  int
	RateWindow time.Duration

	// TokenExpiryMargin is the remaining lifetime below which a token is
	// treated as expired and never sent.
	TokenExpiryMargin time.Duration
	// TokenRefreshWindow is the remaining lifetime below which a proactive
	// refresh is attempted while the old token is still usable.
	TokenRefreshWindow time.Duration
	// TokenDefaultLifetime applies when the login response declares no expiry.
	TokenDefaultLifetime time.Duration

	// RetryMaxAttempts is the total number of attempts for idempotent requests
	// failing with connection errors or 5xx responses.
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration

	// MaxConcurrency sizes the HTTP connection pool.
	MaxConcurrency int

	// TokenCacheURL selects a shared token cache, e.g. redis://localhost:6379/0.
	// Empty keeps the token in process memory only.
	TokenCacheURL string

	Debug     bool
	LogLevel  string
	LogFormat string

	Server ServerConfig
}

// ServerConfig configures the MCP host boundary.
type ServerConfig struct {
	Name      string
	Transport string
	// Addr is the listen address for the streamable-http transport.
	Addr string
	// MetricsAddr enables a Prometheus /metrics listener when set.
	MetricsAddr string
}

// Redacted returns a copy that is safe to log.
func (c Config) Redacted() Config {
	out := c
	if out.Password != "" {
		out.Password = "********"
	}
	if out.TokenCacheURL != "" {
		if u, err := url.Parse(out.TokenCacheURL); err == nil {
			out.TokenCacheURL = u.Redacted()
		}
	}
	return out
}
