// Package cli provides the initialization steps shared by every
// finreport subcommand.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finreport/internal/config"
	"finreport/internal/log"
	"finreport/internal/storage"

	"github.com/joho/godotenv"
)

// SetupLogger opens the configured log destination and installs the logger
// as the slog default. The returned close function is never nil.
func SetupLogger(cfg *config.Config) (*log.Logger, func() error, error) {
	logger, closeFn, err := log.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	log.SetDefault(logger)
	return logger, closeFn, nil
}

// LoadEnvFile loads .env files for local development. A missing file is
// not an error; variables already set in the environment win.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenQuoteStore opens the snapshot database, or returns nil when
// SNAPSHOT_DB_PATH is not set.
func OpenQuoteStore(cfg *config.Config, logger *log.Logger) (*storage.QuoteStore, error) {
	if cfg.SnapshotDBPath == "" {
		return nil, nil
	}
	store, err := storage.Open(cfg.SnapshotDBPath, cfg.BaseCurrency, logger)
	if err != nil {
		return nil, fmt.Errorf("open quote store %s: %w", cfg.SnapshotDBPath, err)
	}
	return store, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After
// the signal, cleanup runs with a context bounded by timeout, then done is
// closed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
