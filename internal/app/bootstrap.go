package app

import (
	"context"
	"fmt"
	"os"

	"nmc-mcp/internal/config"
	"nmc-mcp/pkg/logging"
)

// Application represents the bootstrapped server: loaded configuration and
// the initialized component graph.
//
// Example usage:
//
//	cfg := app.NewConfig(false, "", "", version)
//	cfg.Override("MCP_TRANSPORT", "stdio")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	defer application.Close()
//	return application.Serve(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads configuration, initializes logging and builds the
// component graph.
//
// Logging starts at info (debug with cfg.Debug) on stderr so configuration
// problems are visible, then switches to the configured level and format.
//
// Returns *api.ConfigError for missing or invalid settings and
// *api.RegistrationError for a broken tool catalog.
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.InitForCLI(appLogLevel, os.Stderr)

	settings, err := config.Load(config.LoadOptions{
		EnvFile:    cfg.EnvFile,
		ConfigFile: cfg.ConfigFile,
		LookupEnv:  cfg.LookupEnv,
		Overrides:  cfg.Overrides,
	})
	if err != nil {
		logging.Error("App", err, "Failed to load configuration")
		return nil, err
	}
	initLogging(cfg, settings)
	logging.Debug("App", "Configuration: %+v", settings.Redacted())

	services, err := InitializeServices(settings)
	if err != nil {
		logging.Error("App", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

func initLogging(cfg *Config, settings config.Config) {
	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		logging.Warn("App", "%v, using info", err)
	}
	if cfg.Debug || settings.Debug {
		level = logging.LevelDebug
	}
	logging.Init(logging.Options{
		Level:  level,
		Format: logging.Format(settings.LogFormat),
		Output: os.Stderr,
	})
}

// Services returns the initialized component graph.
func (a *Application) Services() *Services {
	return a.services
}

// Close releases resources held by the services.
func (a *Application) Close() {
	a.services.Close()
}

// Serve runs the MCP server until ctx is cancelled, a termination signal
// arrives, or the host disconnects.
func (a *Application) Serve(ctx context.Context) error {
	return runServer(ctx, a.services, a.config.Version)
}
