// Package cli provides the initialization steps shared by cmd/financeiro and
// cmd/financeiro-export.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"financeiro/internal/config"
	"financeiro/internal/core"
	applog "financeiro/internal/log"
	"financeiro/internal/storage"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    out,
	})
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", cfg.LogLevel)
	}
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads the environment configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StoreConfig maps the application configuration onto the storage settings.
func StoreConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Driver:      storage.Driver(cfg.DatabaseDriver),
		SQLitePath:  cfg.SQLiteDBPath,
		DatabaseURL: cfg.DatabaseURL,
	}
}

// OpenStore opens and migrates the configured database.
func OpenStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*storage.Store, error) {
	sc := StoreConfig(cfg)
	store, err := storage.Open(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", sc.Driver, err)
	}
	logger.WithComponent(applog.ComponentStorage).Info("Store opened",
		"driver", sc.Driver.String(), applog.FieldFile, sc.SQLitePath)
	return store, nil
}

// DateCompare returns the configured date range comparison.
func DateCompare(cfg *config.Config) core.DateCompare {
	return core.DateCompare(cfg.DateCompare)
}

// Fatal logs err and exits with status 1.
func Fatal(logger *applog.Logger, msg string, err error) {
	logger.Error(msg, applog.FieldError, err)
	os.Exit(1)
}
