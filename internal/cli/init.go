// Package cli provides common initialization utilities shared by
// cmd/budgetbook and cmd/budgetbook-sync.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetbook/assets"
	"budgetbook/internal/backend"
	"budgetbook/internal/config"
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
	"budgetbook/internal/remote"
	"budgetbook/internal/remote/gcs"
	"budgetbook/internal/remote/gdrive"
	"budgetbook/internal/remote/httpblob"
)

// SetupLogger installs a bootstrap logger so config loading failures are
// already structured. ConfigureLogger replaces it once the config is known.
func SetupLogger() *slog.Logger {
	return log.Setup("info", "text")
}

// ConfigureLogger rebuilds the default logger from the validated config.
func ConfigureLogger(cfg *config.Config) *slog.Logger {
	return log.Setup(cfg.LogLevel, cfg.LogFormat)
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore builds the document store selected by the config.
// Returns the store with its cleanup or exits the process on failure.
func InitStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.StoreResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid storage backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize document store", "error", err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// LoadDefaults parses the embedded seed defaults.
// Exits the process when the embedded asset is unreadable.
func LoadDefaults(logger *slog.Logger) core.Defaults {
	defaults, err := assets.Defaults()
	if err != nil {
		logger.Error("Failed to load embedded defaults", "error", err)
		os.Exit(1)
	}
	return defaults
}

// OpenLedger loads the budget document with the given seed defaults and runs
// load-time migrations. Exits the process when the store is unusable.
func OpenLedger(ctx context.Context, logger *slog.Logger, store *backend.StoreResult, cfg *config.Config, defaults core.Defaults) *ledger.Ledger {
	led, err := ledger.Open(ctx, store.Store, defaults, ledger.Options{
		CurrentYear: cfg.CurrentYear(time.Now()),
	})
	if err != nil {
		logger.Error("Failed to open budget document", "error", err)
		os.Exit(1)
	}
	return led
}

// InitRemote builds the configured remote blob provider. The second return is
// a cleanup for providers holding connections. Exits when a configured
// provider cannot be constructed; returns ok=false when none is configured.
func InitRemote(ctx context.Context, logger *slog.Logger, cfg *config.Config) (remote.Blob, func(), bool) {
	switch cfg.RemoteProvider {
	case "":
		return nil, nil, false

	case "gdrive":
		client, err := gdrive.New(ctx, cfg.DriveFolderID, cfg.DriveFileName, []byte(cfg.GoogleCredentialsJSON))
		if err != nil {
			logger.Error("Failed to initialize Google Drive provider", "error", err)
			os.Exit(1)
		}
		return client, func() {}, true

	case "gcs":
		client, err := gcs.New(ctx, cfg.GCSBucket, cfg.GCSObject, []byte(cfg.GoogleCredentialsJSON))
		if err != nil {
			logger.Error("Failed to initialize GCS provider", "error", err)
			os.Exit(1)
		}
		return client, func() {
			if err := client.Close(); err != nil {
				logger.Warn("Closing GCS client failed", "error", err)
			}
		}, true

	case "http":
		return httpblob.New(cfg.RemoteURL), func() {}, true

	default:
		// Validate() rejects anything else before we get here.
		logger.Error("Unknown remote provider", log.FieldProvider, cfg.RemoteProvider)
		os.Exit(1)
		return nil, nil, false
	}
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
