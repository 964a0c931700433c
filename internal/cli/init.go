// Package cli provides common initialization for the command binary:
// logging, .env loading, configuration and backend wiring.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"finly/internal/amqp"
	"finly/internal/backend"
	"finly/internal/config"
	"finly/internal/notify"
)

// SetupLogger initializes structured logging with default settings and sets
// it as the default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are ignored
// silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting the
// process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend builds and initializes the configured store, exiting the
// process on failure.
func OpenBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.Result {
	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(ctx, cfg.BackendConfig())
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// NewPublisher connects the optional AMQP change-event bridge. A missing
// URL disables it; a failed connection logs a warning and the process
// continues with in-process notification only.
func NewPublisher(logger *slog.Logger, cfg *config.Config) (notify.Publisher, func() error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		return nil, nil
	}

	logger.Info("Initialized AMQP change-event bridge",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, client.Close
}
