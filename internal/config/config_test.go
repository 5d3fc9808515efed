package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Environment:    "development",
		Port:           "8080",
		BundleStore:    StoreMemory,
		FileStorage:    StorageS3,
		S3Bucket:       "bundles",
		StoreTimeout:   5 * time.Second,
		CacheTTL:       30 * time.Second,
		DefaultChannel: "production",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid memory store", func(c *Config) {}, false},
		{"postgres requires dsn", func(c *Config) { c.BundleStore = StorePostgres }, true},
		{"postgres with dsn", func(c *Config) {
			c.BundleStore = StorePostgres
			c.DatabaseURL = "postgres://localhost/otadrift"
		}, false},
		{"s3 store requires bucket", func(c *Config) {
			c.BundleStore = StoreS3
			c.S3Bucket = ""
			c.FileStorage = StorageFirebase
			c.FirebaseStorageBucket = "b"
		}, true},
		{"firestore requires credentials", func(c *Config) { c.BundleStore = StoreFirestore }, true},
		{"unknown store", func(c *Config) { c.BundleStore = "redis" }, true},
		{"minio storage requires bucket", func(c *Config) {
			c.FileStorage = StorageMinio
			c.S3Bucket = ""
		}, true},
		{"firebase storage requires bucket", func(c *Config) { c.FileStorage = StorageFirebase }, true},
		{"unknown storage", func(c *Config) { c.FileStorage = "ftp" }, true},
		{"zero store timeout", func(c *Config) { c.StoreTimeout = 0 }, true},
		{"zero cache ttl", func(c *Config) { c.CacheTTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
