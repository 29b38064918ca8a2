package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSService implements StorageService on Google Cloud Storage.
type GCSService struct {
	client    *storage.Client
	projectID string
	baseURL   string
}

// NewGCSService creates a client using application default credentials or,
// when configured, a service-account JSON file.
func NewGCSService(ctx context.Context, cfg Config) (*GCSService, error) {
	var opts []option.ClientOption
	if file := cfg.GetGCSCredentialsFile(); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	baseURL := cfg.GetStoragePublicBaseURL()
	if baseURL == "" {
		baseURL = gcsPublicHost
	}

	return &GCSService{
		client:    client,
		projectID: cfg.GetGCSProjectID(),
		baseURL:   baseURL,
	}, nil
}

// Close releases the underlying client.
func (s *GCSService) Close() error {
	return s.client.Close()
}

// EnsureBucketExists creates the bucket in the configured project if missing.
func (s *GCSService) EnsureBucketExists(ctx context.Context, bucket string) error {
	handle := s.client.Bucket(bucket)
	if _, err := handle.Attrs(ctx); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if err := handle.Create(ctx, s.projectID, nil); err != nil {
		if isGoogleAPIStatus(err, http.StatusConflict) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// UploadFile writes the object only if the key is not already taken.
func (s *GCSService) UploadFile(ctx context.Context, bucket, fileKey, contentType string, reader io.Reader, _ int64) error {
	// Cancelling the writer context aborts the upload instead of committing a partial object.
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := s.client.Bucket(bucket).Object(fileKey).If(storage.Conditions{DoesNotExist: true}).NewWriter(writeCtx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, reader); err != nil {
		cancel()
		_ = writer.Close()
		return fmt.Errorf("failed to upload file %s: %w", fileKey, err)
	}

	if err := writer.Close(); err != nil {
		if isGoogleAPIStatus(err, http.StatusPreconditionFailed) {
			return fmt.Errorf("object %s already exists: %w", fileKey, err)
		}
		return fmt.Errorf("failed to finalize upload %s: %w", fileKey, err)
	}
	return nil
}

// DeleteObject removes an object from storage.
func (s *GCSService) DeleteObject(ctx context.Context, bucket, fileKey string) error {
	err := s.client.Bucket(bucket).Object(fileKey).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrObjectNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", fileKey, err)
	}
	return nil
}

// PublicURL returns the object's URL under the public host.
func (s *GCSService) PublicURL(bucket, fileKey string) string {
	return joinURL(s.baseURL, bucket, fileKey)
}

func isGoogleAPIStatus(err error, code int) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == code
}
