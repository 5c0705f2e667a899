package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbook/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new store factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		f.logger.InfoContext(ctx, "Initialized file store", "path", config.FilePath)
		return &StoreResult{
			Store:   storage.NewFileStore(config.FilePath),
			Cleanup: nil,
		}, nil

	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return &StoreResult{
			Store:   store,
			Cleanup: store.Close,
		}, nil

	case MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized in-memory store")
		return &StoreResult{
			Store:   storage.NewMemoryStore(),
			Cleanup: nil,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
