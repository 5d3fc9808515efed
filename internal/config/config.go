package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store backends selectable via OTA_BUNDLE_STORE
const (
	StorePostgres  = "postgres"
	StoreS3        = "s3"
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

// Storage backends selectable via OTA_FILE_STORAGE
const (
	StorageS3       = "s3"
	StorageMinio    = "minio"
	StorageFirebase = "firebase"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"API_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`

	// Bundle store configuration
	BundleStore    string        `env:"OTA_BUNDLE_STORE" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	CacheTTL       time.Duration `env:"BUNDLE_CACHE_TTL" envDefault:"30s"`
	DefaultChannel string        `env:"DEFAULT_CHANNEL" envDefault:"production"`

	// File storage configuration
	FileStorage string        `env:"OTA_FILE_STORAGE" envDefault:"s3"`
	URLTTL      time.Duration `env:"DOWNLOAD_URL_TTL" envDefault:"15m"`

	// S3 / MinIO configuration
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3UseSSL    bool   `env:"S3_USE_SSL" envDefault:"true"`

	// Firebase configuration
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseStorageBucket   string `env:"FIREBASE_STORAGE_BUCKET"`

	// Management API configuration
	JWTSecret string `env:"JWT_SECRET"`

	// Telemetry Configuration
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load loads the configuration from environment variables and .env files
func Load() (*Config, error) {
	// Load .env file if it exists
	// Try multiple locations for .env file
	envLocations := []string{
		"internal/config/env/.env.production",
		"internal/config/env/.env.development",
		".env",
	}

	// If ENV is set, try to load that specific file first
	envName := os.Getenv("ENV")
	if envName != "" {
		envLocations = append([]string{fmt.Sprintf("internal/config/env/.env.%s", envName)}, envLocations...)
	}

	for _, loc := range envLocations {
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Set default log file if not set
	if cfg.LogFile == "" {
		if cfg.Environment == "production" {
			cfg.LogFile = "/app/logs/api.log"
		} else {
			cfg.LogFile = "./logs/api.log"
		}
	}

	// Ensure log directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return cfg, nil
}

// Validate checks backend selections and their required settings
func (c *Config) Validate() error {
	switch c.BundleStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when OTA_BUNDLE_STORE=postgres")
		}
	case StoreS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when OTA_BUNDLE_STORE=s3")
		}
	case StoreFirestore:
		if c.FirebaseCredentialsFile == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_FILE is required when OTA_BUNDLE_STORE=firestore")
		}
	case StoreMemory:
		// no external settings
	default:
		return fmt.Errorf("unknown bundle store backend: %q", c.BundleStore)
	}

	switch c.FileStorage {
	case StorageS3, StorageMinio:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when OTA_FILE_STORAGE=%s", c.FileStorage)
		}
	case StorageFirebase:
		if c.FirebaseStorageBucket == "" {
			return fmt.Errorf("FIREBASE_STORAGE_BUCKET is required when OTA_FILE_STORAGE=firebase")
		}
	default:
		return fmt.Errorf("unknown file storage backend: %q", c.FileStorage)
	}

	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("BUNDLE_CACHE_TTL must be positive")
	}

	return nil
}
