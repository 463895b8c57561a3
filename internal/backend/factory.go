package backend

import (
	"context"
	"fmt"
	"log/slog"

	"keuangan/internal/cache"
	"keuangan/internal/store"
	"keuangan/internal/store/blob"
	"keuangan/internal/store/file"
	"keuangan/internal/store/memory"
	"keuangan/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case BlobBackend:
		return f.createBlobBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	st, err := file.New(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)

	return &BackendResult{Store: st}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	st, closeFn, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	version, err := sqlite.SchemaVersion(config.SQLiteDBPath)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("failed to check SQLite schema: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath, "schema_version", version)

	return &BackendResult{Store: st, Cleanup: closeFn}, nil
}

func (f *DefaultFactory) createBlobBackend(ctx context.Context, config Config) (*BackendResult, error) {
	// Without credentials the store still serves fallback values for reads.
	var client blob.ObjectClient
	if len(config.BlobCredentials) == 0 {
		f.logger.Warn("Blob credentials missing, writes will fail", "prefix", config.BlobPrefix)
	} else {
		gcs, err := blob.NewGCSClient(ctx, config.BlobBucket, config.BlobCredentials)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize blob client: %w", err)
		}
		client = gcs
		f.logger.Info("Initialized blob backend", "bucket", config.BlobBucket, "prefix", config.BlobPrefix)
	}

	if config.CacheTTL <= 0 {
		return &BackendResult{Store: blob.New(client, config.BlobPrefix, f.logger)}, nil
	}

	cached := cache.NewDocuments(blob.NewDocuments(client, config.BlobPrefix), config.CacheTTL)
	f.logger.Info("Caching blob documents", "ttl", config.CacheTTL)
	return &BackendResult{
		Store:   store.NewJSONStore(cached, store.TolerateReadErrors(f.logger)),
		Cleanup: cached.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Store: memory.New()}, nil
}
