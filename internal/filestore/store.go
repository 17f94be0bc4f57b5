// Package filestore defines the object storage interface dbchat persists
// documents through (saved queries, favorites).
//
// Callers depend only on this package, never on a specific provider.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin", "dbchat-history")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	err = store.PutObject(ctx, "history/1.json", bytes.NewReader(body), int64(len(body)), "application/json")
package filestore

import (
	"context"
	"io"
)

// Store is the interface every object storage provider implements. All
// keys are relative to the configured bucket.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// EnsureBucket creates the configured bucket when it does not exist.
	EnsureBucket(ctx context.Context) error

	// PutObject writes size bytes from r to key, replacing any object there.
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// GetObject opens a streaming handle to the object at key.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, key string) (Object, error)

	// ListObjects returns the objects matching opts.
	ListObjects(ctx context.Context, opts ListOptions) ([]ObjectInfo, error)

	// RemoveObject deletes the object at key.
	RemoveObject(ctx context.Context, key string) error
}
