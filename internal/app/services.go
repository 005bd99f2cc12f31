package app

import (
	"fmt"
	"io"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/auth"
	"nmc-mcp/internal/client"
	"nmc-mcp/internal/config"
	"nmc-mcp/internal/metrics"
	"nmc-mcp/internal/nmc"
	"nmc-mcp/internal/ratelimit"
	"nmc-mcp/internal/registry"
	"nmc-mcp/internal/tokenstore"
	"nmc-mcp/internal/tools"
	"nmc-mcp/pkg/logging"
)

// Services holds the initialized component graph.
type Services struct {
	// Settings is the loaded, validated configuration.
	Settings config.Config

	Metrics *metrics.Metrics
	Limiter *ratelimit.Limiter
	HTTP    *client.Client
	Store   auth.TokenStore
	Tokens  *auth.Manager
	NMC     *nmc.Client

	// Registry holds every tool advertised to the host.
	Registry *registry.Registry
}

// InitializeServices builds the component graph from settings.
//
// Args:
//   - settings: Validated configuration from config.Load
//
// Returns *api.ConfigError when the token cache URL cannot be opened and
// *api.RegistrationError when the tool catalog is inconsistent.
func InitializeServices(settings config.Config) (*Services, error) {
	m := metrics.New()
	limiter := ratelimit.New(ratelimit.Config{
		Limit:  settings.RateLimit,
		Window: settings.RateWindow,
	})

	httpClient := client.New(client.Config{
		BaseURL:          settings.BaseURL,
		Timeout:          settings.Timeout,
		VerifySSL:        settings.VerifySSL,
		AuthScheme:       settings.AuthScheme,
		MaxConcurrency:   settings.MaxConcurrency,
		RetryMaxAttempts: settings.RetryMaxAttempts,
		RetryBaseDelay:   settings.RetryBaseDelay,
		RetryMaxDelay:    settings.RetryMaxDelay,
	}, limiter, client.WithMetrics(m))

	store, err := tokenstore.Open(settings.TokenCacheURL, settings.BaseURL, settings.Username)
	if err != nil {
		httpClient.Close()
		cfgErr := &api.ConfigError{}
		cfgErr.Add("NMC_TOKEN_CACHE_URL", "%v", err)
		return nil, cfgErr
	}

	nmcAPI := nmc.New(httpClient)
	tokens := auth.NewManager(auth.Config{
		Username:        settings.Username,
		Password:        settings.Password,
		ExpiryMargin:    settings.TokenExpiryMargin,
		RefreshWindow:   settings.TokenRefreshWindow,
		DefaultLifetime: settings.TokenDefaultLifetime,
		LoginTimeout:    settings.Timeout,
		Store:           store,
		Metrics:         m,
	}, nmcAPI.Auth)
	httpClient.UseTokenSource(tokens)

	reg := registry.New(registry.WithMetrics(m))
	services := &Services{
		Settings: settings,
		Metrics:  m,
		Limiter:  limiter,
		HTTP:     httpClient,
		Store:    store,
		Tokens:   tokens,
		NMC:      nmcAPI,
		Registry: reg,
	}

	if err := tools.RegisterAll(reg, tools.Deps{NMC: nmcAPI, Tokens: tokens}); err != nil {
		services.Close()
		return nil, err
	}
	if err := NewConfigAdapter(settings).Register(reg); err != nil {
		services.Close()
		return nil, fmt.Errorf("registering config tools: %w", err)
	}

	logging.Info("App", "Initialized %d tools for %s", reg.Len(), settings.BaseURL)
	return services, nil
}

// Close releases pooled connections and the token cache client.
func (s *Services) Close() {
	s.HTTP.Close()
	if closer, ok := s.Store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logging.Warn("App", "Error closing token store: %v", err)
		}
	}
}

// Catalog returns the tool catalog without loading configuration or
// touching the network. The handlers are unbound and must not be invoked.
func Catalog() ([]api.ToolDescriptor, error) {
	reg := registry.New()
	if err := tools.RegisterAll(reg, tools.Deps{NMC: nmc.New(nil)}); err != nil {
		return nil, err
	}
	if err := NewConfigAdapter(config.Defaults()).Register(reg); err != nil {
		return nil, fmt.Errorf("registering config tools: %w", err)
	}
	return reg.List(), nil
}
