package config

import (
	"net/url"

	"nmc-mcp/internal/api"
	"nmc-mcp/pkg/logging"
)

// validate records every problem with cfg in cfgErr.
func validate(cfg Config, cfgErr *api.ConfigError) {
	if cfg.BaseURL == "" {
		cfgErr.Add("API_BASE_URL", "API_BASE_URL is required")
	} else if u, err := url.Parse(cfg.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		cfgErr.Add("API_BASE_URL", "API_BASE_URL %q must be an http(s) URL", cfg.BaseURL)
	}
	if cfg.Username == "" {
		cfgErr.Add("NMC_USERNAME", "NMC_USERNAME is required")
	}
	if cfg.Password == "" {
		cfgErr.Add("NMC_PASSWORD", "NMC_PASSWORD is required")
	}
	if cfg.AuthScheme == "" {
		cfgErr.Add("NMC_AUTH_SCHEME", "NMC_AUTH_SCHEME must not be empty")
	}

	if cfg.Timeout <= 0 {
		cfgErr.Add("API_TIMEOUT", "API_TIMEOUT must be positive")
	}
	if cfg.RateLimit <= 0 {
		cfgErr.Add("NMC_RATE_LIMIT", "NMC_RATE_LIMIT must be positive")
	}
	if cfg.RateWindow <= 0 {
		cfgErr.Add("NMC_RATE_WINDOW", "NMC_RATE_WINDOW must be positive")
	}
	if cfg.TokenExpiryMargin < 0 {
		cfgErr.Add("NMC_TOKEN_EXPIRY_MARGIN", "NMC_TOKEN_EXPIRY_MARGIN must not be negative")
	}
	if cfg.TokenRefreshWindow < cfg.TokenExpiryMargin {
		cfgErr.Add("NMC_TOKEN_REFRESH_WINDOW", "NMC_TOKEN_REFRESH_WINDOW (%v) must not be smaller than NMC_TOKEN_EXPIRY_MARGIN (%v)",
			cfg.TokenRefreshWindow, cfg.TokenExpiryMargin)
	}
	if cfg.TokenDefaultLifetime <= cfg.TokenRefreshWindow {
		cfgErr.Add("NMC_TOKEN_LIFETIME", "NMC_TOKEN_LIFETIME (%v) must be longer than NMC_TOKEN_REFRESH_WINDOW (%v)",
			cfg.TokenDefaultLifetime, cfg.TokenRefreshWindow)
	}
	if cfg.RetryMaxAttempts < 1 {
		cfgErr.Add("NMC_RETRY_MAX_ATTEMPTS", "NMC_RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.RetryBaseDelay <= 0 {
		cfgErr.Add("NMC_RETRY_BASE_DELAY", "NMC_RETRY_BASE_DELAY must be positive")
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		cfgErr.Add("NMC_RETRY_MAX_DELAY", "NMC_RETRY_MAX_DELAY must not be smaller than NMC_RETRY_BASE_DELAY")
	}
	if cfg.MaxConcurrency <= 0 {
		cfgErr.Add("NMC_MAX_CONCURRENCY", "NMC_MAX_CONCURRENCY must be positive")
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		cfgErr.Add("LOG_LEVEL", "%v", err)
	}
	if cfg.LogFormat != string(logging.FormatText) && cfg.LogFormat != string(logging.FormatJSON) {
		cfgErr.Add("LOG_FORMAT", "LOG_FORMAT must be %q or %q", logging.FormatText, logging.FormatJSON)
	}

	switch cfg.Server.Transport {
	case MCPTransportStdio:
	case MCPTransportStreamableHTTP:
		if cfg.Server.Addr == "" {
			cfgErr.Add("MCP_ADDR", "MCP_ADDR is required for the %s transport", MCPTransportStreamableHTTP)
		}
	default:
		cfgErr.Add("MCP_TRANSPORT", "unsupported transport %q (use %s or %s)",
			cfg.Server.Transport, MCPTransportStdio, MCPTransportStreamableHTTP)
	}
}
