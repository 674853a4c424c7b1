package storage

import (
	"context"
	"fmt"

	"recipeshare_backend/config"
)

// Open builds the object store named by cfg.Driver. The returned close
// function is never nil.
func Open(ctx context.Context, cfg config.StorageConfig, credentialsFile string) (ObjectStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case "s3":
		s, err := NewS3Store(ctx, S3Options{
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			PublicURL: cfg.PublicBaseURL,
		})
		return s, noop, err
	case "gcs":
		g, err := NewGCSStore(ctx, cfg.Bucket, cfg.PublicBaseURL, credentialsFile)
		if err != nil {
			return nil, noop, err
		}
		return g, g.Close, nil
	case "memory":
		return NewMemoryStore(cfg.PublicBaseURL), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
