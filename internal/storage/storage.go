package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/otadrift/otadrift/internal/config"
)

// Storage resolves an opaque bundle storage locator ("s3://bucket/key",
// "gs://bucket/object") into a time-limited downloadable URL. Resolution
// happens lazily, only when a decision actually serves a bundle.
type Storage interface {
	ResolveDownloadURL(ctx context.Context, storageURI string) (string, error)
}

// New builds the storage backend selected by configuration
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.FileStorage {
	case config.StorageS3:
		return NewS3Storage(ctx, cfg)
	case config.StorageMinio:
		return NewMinioStorage(cfg)
	case config.StorageFirebase:
		return NewFirebaseStorage(cfg)
	default:
		return nil, fmt.Errorf("unknown file storage backend: %q", cfg.FileStorage)
	}
}

// parseURI splits scheme://bucket/key into its parts
func parseURI(storageURI string) (scheme, bucket, key string, err error) {
	u, err := url.Parse(storageURI)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid storage uri %q: %w", storageURI, err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme == "" || u.Host == "" || key == "" {
		return "", "", "", fmt.Errorf("invalid storage uri %q", storageURI)
	}
	return u.Scheme, u.Host, key, nil
}
