package storage

import (
	"context"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/otadrift/otadrift/internal/config"
	fb "github.com/otadrift/otadrift/internal/config/firebase"
)

// FirebaseStorage resolves gs:// locators to V4 signed URLs on the
// project's Cloud Storage buckets
type FirebaseStorage struct {
	ttl time.Duration
}

func NewFirebaseStorage(cfg *config.Config) (*FirebaseStorage, error) {
	if fb.GetStorageClient() == nil {
		return nil, fmt.Errorf("firebase storage client not initialized")
	}
	return &FirebaseStorage{ttl: cfg.URLTTL}, nil
}

func (f *FirebaseStorage) ResolveDownloadURL(ctx context.Context, storageURI string) (string, error) {
	scheme, bucket, object, err := parseURI(storageURI)
	if err != nil {
		return "", err
	}
	if scheme != "gs" {
		return "", fmt.Errorf("unsupported storage uri scheme %q for firebase backend", scheme)
	}

	handle, err := fb.GetStorageClient().Bucket(bucket)
	if err != nil {
		return "", fmt.Errorf("opening bucket %s: %w", bucket, err)
	}

	url, err := handle.SignedURL(object, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(f.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("signing %s: %w", storageURI, err)
	}

	return url, nil
}
