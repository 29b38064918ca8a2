// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Record store drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Object storage drivers.
const (
	StorageMinIO  = "minio"
	StorageGCS    = "gcs"
	StorageMemory = "memory"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides record store connection settings.
type DatabaseConfig interface {
	GetDatabaseDriver() string
	GetDatabaseURL() string
}

// MongoConfig provides MongoDB connection settings.
type MongoConfig interface {
	GetMongoURI() string
	GetMongoDatabase() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// StorageConfig selects the object storage driver and the public URL base.
type StorageConfig interface {
	GetStorageDriver() string
	GetStorageBucket() string
	GetStoragePublicBaseURL() string
	GetDocumentsFolder() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}

// GCSConfig provides settings for Google Cloud Storage.
type GCSConfig interface {
	GetGCSProjectID() string
	GetGCSCredentialsFile() string
}

// UploadConfig provides server-side upload limits.
type UploadConfig interface {
	GetUploadMaxFileSize() int64
	GetUploadEnforceContentTypes() bool
}

// SchedulerConfig provides Redis/asynq settings for the cleanup queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// IdempotencyConfig provides settings for upload request tokens.
type IdempotencyConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetIdempotencyTTL() time.Duration
}

// MetricsConfig provides Prometheus settings.
type MetricsConfig interface {
	GetMetricsPrefix() string
}

// PhoneConfig provides the default region for phone normalization.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                       string
	HTTPAddr                  string
	DatabaseDriver            string
	DatabaseURL               string
	MongoURI                  string
	MongoDatabase             string
	CORSAllowAll              bool
	CORSOrigins               []string
	CORSAllowCreds            bool
	RateLimitRPS              float64
	RateLimitBurst            int
	StorageDriver             string
	StorageBucket             string
	StoragePublicBaseURL      string
	DocumentsFolder           string
	MinIOEndpoint             string
	MinIOAccessKey            string
	MinIOSecretKey            string
	MinIOUseSSL               bool
	GCSProjectID              string
	GCSCredentialsFile        string
	UploadMaxFileSize         int64
	UploadEnforceContentTypes bool
	RedisURL                  string
	RedisTLSInsecure          bool
	AsynqQueueName            string
	AsynqConcurrency          int
	IdempotencyTTL            time.Duration
	MetricsPrefix             string
	PhoneDefaultRegion        string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseDriver() string { return c.DatabaseDriver }
func (c *Config) GetDatabaseURL() string    { return c.DatabaseURL }

// MongoConfig implementation
func (c *Config) GetMongoURI() string      { return c.MongoURI }
func (c *Config) GetMongoDatabase() string { return c.MongoDatabase }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string       { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool     { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string  { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool   { return c.CORSAllowCreds }
func (c *Config) GetRateLimitRPS() float64  { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int    { return c.RateLimitBurst }

// StorageConfig implementation
func (c *Config) GetStorageDriver() string        { return c.StorageDriver }
func (c *Config) GetStorageBucket() string        { return c.StorageBucket }
func (c *Config) GetStoragePublicBaseURL() string { return c.StoragePublicBaseURL }
func (c *Config) GetDocumentsFolder() string      { return c.DocumentsFolder }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) IsMinIOEnabled() bool      { return c.MinIOEndpoint != "" }

// GCSConfig implementation
func (c *Config) GetGCSProjectID() string       { return c.GCSProjectID }
func (c *Config) GetGCSCredentialsFile() string { return c.GCSCredentialsFile }

// UploadConfig implementation
func (c *Config) GetUploadMaxFileSize() int64        { return c.UploadMaxFileSize }
func (c *Config) GetUploadEnforceContentTypes() bool { return c.UploadEnforceContentTypes }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }

// IdempotencyConfig implementation
func (c *Config) GetIdempotencyTTL() time.Duration { return c.IdempotencyTTL }

// MetricsConfig implementation
func (c *Config) GetMetricsPrefix() string { return c.MetricsPrefix }

// PhoneConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables. A .env file and the
// YAML file named by CONFIG_FILE only fill in variables that are not set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := applyYAMLDefaults(path); err != nil {
			return nil, err
		}
	}

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	httpAddr := getEnv("HTTP_ADDR", "")
	if httpAddr == "" {
		httpAddr = ":" + getEnv("PORT", "5000")
	}

	cfg := &Config{
		Env:                       getEnv("APP_ENV", "development"),
		HTTPAddr:                  httpAddr,
		DatabaseDriver:            strings.ToLower(getEnv("DATABASE_DRIVER", DriverMongo)),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		MongoURI:                  getEnv("MONGO_URI", ""),
		MongoDatabase:             getEnv("MONGO_DATABASE", "estate_crm"),
		CORSAllowAll:              corsAllowAll,
		CORSOrigins:               corsOrigins,
		CORSAllowCreds:            strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		RateLimitRPS:              mustFloat(getEnv("RATE_LIMIT_RPS", "20")),
		RateLimitBurst:            mustInt(getEnv("RATE_LIMIT_BURST", "40")),
		StorageDriver:             strings.ToLower(getEnv("STORAGE_DRIVER", StorageMinIO)),
		StorageBucket:             getEnv("STORAGE_BUCKET", "lead-documents"),
		StoragePublicBaseURL:      strings.TrimRight(getEnv("STORAGE_PUBLIC_BASE_URL", ""), "/"),
		DocumentsFolder:           getEnv("DOCUMENTS_FOLDER", "leads_documents"),
		MinIOEndpoint:             getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:            getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:            getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:               strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		GCSProjectID:              getEnv("GCS_PROJECT_ID", ""),
		GCSCredentialsFile:        getEnv("GCS_CREDENTIALS_FILE", ""),
		UploadMaxFileSize:         mustInt64(getEnv("UPLOAD_MAX_FILE_SIZE", "10485760")),
		UploadEnforceContentTypes: !strings.EqualFold(getEnv("UPLOAD_ENFORCE_CONTENT_TYPES", "true"), "false"),
		RedisURL:                  getEnv("REDIS_URL", ""),
		RedisTLSInsecure:          strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:            getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:          mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		IdempotencyTTL:            mustDuration(getEnv("IDEMPOTENCY_TTL", "24h")),
		MetricsPrefix:             getEnv("METRICS_PREFIX", "estate_crm"),
		PhoneDefaultRegion:        getEnv("PHONE_DEFAULT_REGION", "US"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER is postgres")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when DATABASE_DRIVER is mongo")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.StorageDriver {
	case StorageMinIO:
		if !c.IsMinIOEnabled() || c.MinIOAccessKey == "" || c.MinIOSecretKey == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when STORAGE_DRIVER is minio")
		}
		if strings.Contains(c.MinIOEndpoint, "://") {
			return fmt.Errorf("MINIO_ENDPOINT must not include a scheme: %q", c.MinIOEndpoint)
		}
	case StorageGCS:
		if c.GCSProjectID == "" {
			return fmt.Errorf("GCS_PROJECT_ID is required when STORAGE_DRIVER is gcs")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	if strings.TrimSpace(c.StorageBucket) == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}
	if c.UploadMaxFileSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_SIZE must be a positive number of bytes")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be a positive duration")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
}

// applyYAMLDefaults reads a flat YAML mapping of VARIABLE: value pairs and
// sets every variable that is not already present in the environment.
func applyYAMLDefaults(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	for key, value := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("apply config value %s: %w", key, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
