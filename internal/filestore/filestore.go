// Package filestore stores uploaded lead documents in object storage and
// hands back the stable public URL that is persisted on the lead.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"estate_crm_backend/internal/adapters/storage"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultFolder is the object key prefix for lead documents.
const DefaultFolder = "leads_documents"

const (
	sniffLen         = 3072
	maxBaseNameRunes = 100
	fallbackBaseName = "document"
	octetStream      = "application/octet-stream"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileUpload is an incoming document.
type FileUpload struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

// Reference identifies a stored document.
type Reference struct {
	Key string
	URL string
}

// Store uploads and removes lead documents.
type Store struct {
	storage storage.StorageService
	bucket  string
	folder  string
	now     func() time.Time
	metrics *metrics.Metrics
	log     *logger.Logger
}

// New creates a Store writing under folder in bucket.
func New(svc storage.StorageService, bucket, folder string, m *metrics.Metrics, log *logger.Logger) *Store {
	if folder == "" {
		folder = DefaultFolder
	}
	return &Store{
		storage: svc,
		bucket:  bucket,
		folder:  strings.Trim(folder, "/"),
		now:     time.Now,
		metrics: m,
		log:     log,
	}
}

// Bucket returns the bucket documents are written to.
func (s *Store) Bucket() string {
	return s.bucket
}

// Upload stores the document under a unique key and returns its reference.
func (s *Store) Upload(ctx context.Context, upload FileUpload) (Reference, error) {
	if upload.Reader == nil {
		return Reference{}, apperr.Validation("no file uploaded")
	}

	upload, err := Sniff(upload)
	if err != nil {
		return Reference{}, apperr.Storage("failed to read upload", err)
	}

	key := ObjectKey(s.folder, upload.FileName, s.now())
	err = s.storage.UploadFile(ctx, s.bucket, key, upload.ContentType, upload.Reader, upload.Size)
	s.metrics.RecordStorage("upload", err)
	if err != nil {
		s.log.WithContext(ctx).StorageError("upload", key, err)
		return Reference{}, apperr.Storage("failed to upload document", err)
	}
	s.metrics.ObserveUpload(upload.Size)

	return Reference{Key: key, URL: s.storage.PublicURL(s.bucket, key)}, nil
}

// Remove deletes a stored document. A missing object is not an error.
func (s *Store) Remove(ctx context.Context, ref Reference) error {
	return s.RemoveKey(ctx, ref.Key)
}

// RemoveKey deletes the object stored under key.
func (s *Store) RemoveKey(ctx context.Context, key string) error {
	err := s.storage.DeleteObject(ctx, s.bucket, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		err = nil
	}
	s.metrics.RecordStorage("delete", err)
	if err != nil {
		return apperr.Storage("failed to delete document", err)
	}
	return nil
}

// Sniff fills in the content type from the leading bytes when the declared
// type is empty or generic. The returned upload reads the full content.
func Sniff(upload FileUpload) (FileUpload, error) {
	declared := storage.NormalizeContentType(upload.ContentType)
	if declared != "" && declared != octetStream {
		return upload, nil
	}
	if upload.Reader == nil {
		return upload, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Reader, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return upload, fmt.Errorf("sniff content type: %w", err)
	}
	head = head[:n]

	upload.ContentType = mimetype.Detect(head).String()
	upload.Reader = io.MultiReader(bytes.NewReader(head), upload.Reader)
	return upload, nil
}

// ObjectKey builds <folder>/<unix-millis>-<base>_<8 hex>.<ext> from the
// client file name. The extension is kept and lower-cased.
func ObjectKey(folder, fileName string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	ext := strings.ToLower(path.Ext(name))
	base := strings.TrimSuffix(name, path.Ext(name))

	ext = unsafeNameChars.ReplaceAllString(ext, "")
	if ext == "." {
		ext = ""
	}

	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "_"), "._")
	if runes := []rune(base); len(runes) > maxBaseNameRunes {
		base = string(runes[:maxBaseNameRunes])
	}
	if base == "" {
		base = fallbackBaseName
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s_%s%s", folder, now.UnixMilli(), base, suffix, ext)
}
