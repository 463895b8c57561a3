package backend

import (
	"context"
	"time"

	"keuangan/internal/store"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the store and an optional cleanup function.
type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string

	// Blob backend. Empty credentials give a read-only store that serves
	// fallbacks.
	BlobBucket      string
	BlobPrefix      string
	BlobCredentials []byte
	// CacheTTL above zero keeps blob documents in memory that long.
	CacheTTL time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	BlobBackend   BackendType = "blob"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, BlobBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
