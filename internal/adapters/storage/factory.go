package storage

import (
	"context"
	"fmt"
)

// Open selects the storage driver named by GetStorageDriver. The returned
// close function is never nil.
func Open(ctx context.Context, cfg Config) (StorageService, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetStorageDriver() {
	case "minio":
		svc, err := NewMinIOService(cfg)
		if err != nil {
			return nil, noop, err
		}
		return svc, noop, nil
	case "gcs":
		svc, err := NewGCSService(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return svc, svc.Close, nil
	case "memory":
		return NewMemoryService(cfg.GetStoragePublicBaseURL()), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported storage driver %q", cfg.GetStorageDriver())
	}
}
