// Package cli provides the start-up steps shared by cmd/myfiance,
// cmd/myfiance-worker and cmd/myfiance-cli.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"myfiance/internal/config"
	"myfiance/internal/log"
	"myfiance/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and installs it as the
// slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenClientState opens the client-state repository selected by
// SESSION_BACKEND.
func OpenClientState(cfg *config.Config) (storage.ClientStateRepository, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendMemory:
		return storage.NewMemoryRepository(), nil
	case config.SessionBackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite client state at %s: %w", cfg.SQLiteDBPath, err)
		}
		return repo, nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
}

// InitClientState is OpenClientState that exits the process on failure.
func InitClientState(logger *log.Logger, cfg *config.Config) storage.ClientStateRepository {
	repo, err := OpenClientState(cfg)
	if err != nil {
		logger.Error("Failed to initialize client state storage",
			log.FieldError, err, "backend", cfg.SessionBackend)
		os.Exit(1)
	}
	logger.Info("Client state storage initialized", "backend", cfg.SessionBackend)
	return repo
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has run.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
