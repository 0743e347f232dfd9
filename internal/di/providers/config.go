// Package providers contains dependency injection providers for the Digital Life Lessons server.
package providers

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/config"
	"github.com/digitallifelessons/lifelessons-server/internal/logger"
)

// ProvideConfig provides the application configuration and makes sure the
// data directory exists.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Store.DataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return cfg, nil
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Digital Life Lessons server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"store", cfg.Store.Driver,
		"data_path", cfg.Store.DataPath,
		"identity_mode", cfg.Identity.Mode,
	)

	return log, nil
}
