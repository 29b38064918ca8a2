// Package storage provides a domain-agnostic interface for object storage.
// Drivers: MinIO (S3-compatible), Google Cloud Storage and an in-memory store.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when an object key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// StorageService defines the interface for object storage operations.
type StorageService interface {
	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// UploadFile stores reader under fileKey. size may be -1 when unknown.
	UploadFile(ctx context.Context, bucket, fileKey, contentType string, reader io.Reader, size int64) error

	// DeleteObject removes an object from storage.
	DeleteObject(ctx context.Context, bucket, fileKey string) error

	// PublicURL returns the stable URL under which fileKey is served.
	PublicURL(bucket, fileKey string) string
}

// Config defines the configuration interface for the storage drivers.
type Config interface {
	GetStorageDriver() string
	GetStoragePublicBaseURL() string
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
	GetGCSProjectID() string
	GetGCSCredentialsFile() string
}

func joinURL(base, bucket, fileKey string) string {
	return base + "/" + bucket + "/" + fileKey
}
