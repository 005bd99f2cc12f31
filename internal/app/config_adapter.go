package app

import (
	"context"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/config"
	"nmc-mcp/internal/tools"
)

// ConfigAdapter exposes the running configuration to the host as a
// read-only tool. Secrets are redacted.
type ConfigAdapter struct {
	settings config.Config
}

// NewConfigAdapter creates a config adapter for settings.
func NewConfigAdapter(settings config.Config) *ConfigAdapter {
	return &ConfigAdapter{settings: settings.Redacted()}
}

// Register adds the adapter's tools to r.
func (a *ConfigAdapter) Register(r tools.Registrar) error {
	for _, desc := range a.Tools() {
		if err := r.Register(desc); err != nil {
			return err
		}
	}
	return nil
}

// Tools returns the tool descriptors served by the adapter.
func (a *ConfigAdapter) Tools() []api.ToolDescriptor {
	return []api.ToolDescriptor{
		{
			Name:        "get_server_config",
			Description: "Show the effective server configuration (NMC URL, limits, retry and token timing). The password is redacted.",
			Permission:  api.PermissionRead,
			Handler:     a.handleGetConfig,
		},
	}
}

// configView is the serialized form of the configuration.
type configView struct {
	BaseURL              string `json:"base_url"`
	Username             string `json:"username"`
	Password             string `json:"password"`
	VerifySSL            bool   `json:"verify_ssl"`
	Timeout              string `json:"timeout"`
	AuthScheme           string `json:"auth_scheme"`
	RateLimit            int    `json:"rate_limit"`
	RateWindow           string `json:"rate_window"`
	TokenExpiryMargin    string `json:"token_expiry_margin"`
	TokenRefreshWindow   string `json:"token_refresh_window"`
	TokenDefaultLifetime string `json:"token_default_lifetime"`
	RetryMaxAttempts     int    `json:"retry_max_attempts"`
	RetryBaseDelay       string `json:"retry_base_delay"`
	RetryMaxDelay        string `json:"retry_max_delay"`
	MaxConcurrency       int    `json:"max_concurrency"`
	TokenCache           string `json:"token_cache"`
	LogLevel             string `json:"log_level"`
	Transport            string `json:"transport"`
	Addr                 string `json:"addr,omitempty"`
	MetricsAddr          string `json:"metrics_addr,omitempty"`
}

func (a *ConfigAdapter) handleGetConfig(ctx context.Context, args api.Args) (interface{}, error) {
	s := a.settings
	view := configView{
		BaseURL:              s.BaseURL,
		Username:             s.Username,
		Password:             s.Password,
		VerifySSL:            s.VerifySSL,
		Timeout:              s.Timeout.String(),
		AuthScheme:           s.AuthScheme,
		RateLimit:            s.RateLimit,
		RateWindow:           s.RateWindow.String(),
		TokenExpiryMargin:    s.TokenExpiryMargin.String(),
		TokenRefreshWindow:   s.TokenRefreshWindow.String(),
		TokenDefaultLifetime: s.TokenDefaultLifetime.String(),
		RetryMaxAttempts:     s.RetryMaxAttempts,
		RetryBaseDelay:       s.RetryBaseDelay.String(),
		RetryMaxDelay:        s.RetryMaxDelay.String(),
		MaxConcurrency:       s.MaxConcurrency,
		TokenCache:           s.TokenCacheURL,
		LogLevel:             s.LogLevel,
		Transport:            s.Server.Transport,
		MetricsAddr:          s.Server.MetricsAddr,
	}
	if view.TokenCache == "" {
		view.TokenCache = "memory"
	}
	if s.Server.Transport == config.MCPTransportStreamableHTTP {
		view.Addr = s.Server.Addr
	}
	return view, nil
}
