// Package config reads process configuration from TRAVELBOOK_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"travelbook/internal/blob"
	"travelbook/internal/geocode"
	"travelbook/internal/kv"
	"travelbook/internal/records"
)

// Config is the full process configuration.
type Config struct {
	StorageDriver string
	StorageKey    string
	SQLitePath    string
	PostgresDSN   string
	RedisURL      string

	BlobDriver string
	BlobFSRoot string
	S3         blob.S3Config

	GeocodeURL     string
	GeocodeAPIKey  string
	GeocodeTimeout time.Duration

	HTTPAddr  string
	LogLevel  string
	LogFormat string
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// FromEnv builds a Config from the environment, applying defaults.
func FromEnv() Config {
	return Config{
		StorageDriver: env("TRAVELBOOK_STORAGE_DRIVER", string(kv.DriverSQLite)),
		StorageKey:    env("TRAVELBOOK_STORAGE_KEY", records.DefaultKey),
		SQLitePath:    env("TRAVELBOOK_SQLITE_PATH", "travelbook.db"),
		PostgresDSN:   os.Getenv("TRAVELBOOK_POSTGRES_DSN"),
		RedisURL:      os.Getenv("TRAVELBOOK_REDIS_URL"),

		BlobDriver: env("TRAVELBOOK_BLOB_DRIVER", string(blob.DriverFilesystem)),
		BlobFSRoot: env("TRAVELBOOK_BLOB_FS_ROOT", "./blobdata"),
		S3: blob.S3Config{
			Region:          os.Getenv("TRAVELBOOK_BLOB_S3_REGION"),
			Bucket:          os.Getenv("TRAVELBOOK_BLOB_S3_BUCKET"),
			Endpoint:        os.Getenv("TRAVELBOOK_BLOB_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("TRAVELBOOK_BLOB_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("TRAVELBOOK_BLOB_S3_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("TRAVELBOOK_BLOB_S3_SESSION_TOKEN"),
			PathStyle:       envBool("TRAVELBOOK_BLOB_S3_PATH_STYLE"),
		},

		GeocodeURL:     env("TRAVELBOOK_GEOCODE_URL", geocode.DefaultBaseURL),
		GeocodeAPIKey:  os.Getenv("TRAVELBOOK_GEOCODE_API_KEY"),
		GeocodeTimeout: envDuration("TRAVELBOOK_GEOCODE_TIMEOUT", geocode.DefaultTimeout),

		HTTPAddr:  env("TRAVELBOOK_HTTP_ADDR", ":8080"),
		LogLevel:  env("TRAVELBOOK_LOG_LEVEL", "info"),
		LogFormat: env("TRAVELBOOK_LOG_FORMAT", "text"),
	}
}

// Blob returns the blob driver selection.
func (c Config) Blob() blob.Config {
	return blob.Config{Driver: c.BlobDriver, FSRoot: c.BlobFSRoot, S3: c.S3}
}

// KV returns the storage driver selection. The blob driver reuses Blob().
func (c Config) KV() kv.Config {
	return kv.Config{
		Driver:      c.StorageDriver,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		RedisURL:    c.RedisURL,
		Blob:        c.Blob(),
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
