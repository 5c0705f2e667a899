package backend

import (
	"context"

	"budgetbook/internal/storage"
)

// CleanupFunc releases resources held by a store.
type CleanupFunc func() error

// StoreResult contains the store instance and optional cleanup function.
type StoreResult struct {
	Store   storage.Store
	Cleanup CleanupFunc
}

// Factory creates document stores based on configuration.
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
}

// Config holds configuration for store creation.
type Config struct {
	Type BackendType

	// File specific
	FilePath string

	// SQLite specific
	SQLiteDBPath string
}

// BackendType selects how the document is persisted.
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
