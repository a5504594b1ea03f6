package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/teb-sweep/internal/simulator"
	"github.com/roman-kulish/teb-sweep/internal/storage"
)

// Run sweeps every configured modulation with the configured simulator
func Run(ctx context.Context, config *Config, logger *slog.Logger, options ...func(*Orchestrator)) error {
	runner, err := simulator.New(&config.Simulator, simulator.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create simulator runner: %w", err)
	}

	if config.Storage.Enabled {
		store, err := createStorage(&config.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		defer func() {
			if cErr := store.Close(); cErr != nil {
				logger.Error(fmt.Sprintf("closing storage: %s", cErr.Error()))
			}
		}()

		options = append(options, WithStore(store))
	}

	logger.Info("starting",
		slog.String("simulator", config.Simulator.String()),
		slog.Any("modulations", config.Sweep.Modulations),
		slog.String("output", config.Output.Directory))

	_, err = NewOrchestrator(config, runner, logger, options...).Run(ctx)
	return err
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	dbPath, err := filepath.Abs(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("resolving storage directory: %w", err)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory: %w", err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("teb_sweep_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}
