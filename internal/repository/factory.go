package repository

import (
	"context"
	"fmt"

	"github.com/otadrift/otadrift/internal/config"
)

// New selects the bundle store backend from configuration.
func New(ctx context.Context, cfg *config.Config) (BundleRepository, error) {
	switch cfg.BundleStore {
	case config.StorePostgres:
		return NewPostgresRepository(cfg.DatabaseURL)
	case config.StoreS3:
		return NewS3Repository(ctx, cfg)
	case config.StoreFirestore:
		return NewFirestoreRepository(ctx)
	case config.StoreMemory:
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown bundle store backend: %q", cfg.BundleStore)
	}
}
