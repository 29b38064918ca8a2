package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

const memoryBaseURL = "memory://objects"

// MemoryObject is a stored object held by MemoryService.
type MemoryObject struct {
	ContentType string
	Data        []byte
}

// MemoryService is an in-process StorageService for development and tests.
type MemoryService struct {
	mu      sync.RWMutex
	buckets map[string]map[string]MemoryObject
	baseURL string

	// FailUploads and FailDeletes force errors for exercising failure paths.
	FailUploads error
	FailDeletes error
}

// NewMemoryService creates an empty in-memory store. baseURL may be empty.
func NewMemoryService(baseURL string) *MemoryService {
	if baseURL == "" {
		baseURL = memoryBaseURL
	}
	return &MemoryService{
		buckets: make(map[string]map[string]MemoryObject),
		baseURL: baseURL,
	}
}

func (s *MemoryService) EnsureBucketExists(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]MemoryObject)
	}
	return nil
}

func (s *MemoryService) UploadFile(ctx context.Context, bucket, fileKey, contentType string, reader io.Reader, _ int64) error {
	if s.FailUploads != nil {
		return s.FailUploads
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return fmt.Errorf("failed to upload file %s: %w", fileKey, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.buckets[bucket]
	if !ok {
		objects = make(map[string]MemoryObject)
		s.buckets[bucket] = objects
	}
	objects[fileKey] = MemoryObject{ContentType: contentType, Data: buf.Bytes()}
	return nil
}

func (s *MemoryService) DeleteObject(_ context.Context, bucket, fileKey string) error {
	if s.FailDeletes != nil {
		return s.FailDeletes
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	objects := s.buckets[bucket]
	if _, ok := objects[fileKey]; !ok {
		return ErrObjectNotFound
	}
	delete(objects, fileKey)
	return nil
}

func (s *MemoryService) PublicURL(bucket, fileKey string) string {
	return joinURL(s.baseURL, bucket, fileKey)
}

// Object returns a stored object.
func (s *MemoryService) Object(bucket, fileKey string) (MemoryObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.buckets[bucket][fileKey]
	return obj, ok
}

// Len reports how many objects bucket holds.
func (s *MemoryService) Len(bucket string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets[bucket])
}
