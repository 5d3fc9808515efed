package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/otadrift/otadrift/internal/config"
)

// MinioStorage resolves s3:// locators against a self-hosted MinIO endpoint
type MinioStorage struct {
	client *minio.Client
	ttl    time.Duration
}

func NewMinioStorage(cfg *config.Config) (*MinioStorage, error) {
	if cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("S3_ENDPOINT is required for the minio backend")
	}

	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &MinioStorage{
		client: client,
		ttl:    cfg.URLTTL,
	}, nil
}

func (m *MinioStorage) ResolveDownloadURL(ctx context.Context, storageURI string) (string, error) {
	scheme, bucket, key, err := parseURI(storageURI)
	if err != nil {
		return "", err
	}
	if scheme != "s3" {
		return "", fmt.Errorf("unsupported storage uri scheme %q for minio backend", scheme)
	}

	u, err := m.client.PresignedGetObject(ctx, bucket, key, m.ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", storageURI, err)
	}

	return u.String(), nil
}
