package cli

import (
	"context"
	"fmt"

	"keuangan/internal/backend"
	"keuangan/internal/config"
	"keuangan/internal/log"
)

// OpenStore builds the store the configuration selects. The caller owns
// the returned cleanup.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}

	storeLogger := logger.WithComponent(log.ComponentStorage)
	result, err := backend.NewFactory(storeLogger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	storeLogger.Info("Store ready",
		log.FieldBackend, bcfg.Type.String(),
		"blob_credentials", len(bcfg.BlobCredentials) > 0)
	return result, nil
}
