// Package minio provides a MinIO implementation of filestore.Store.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin", "dbchat-history")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
package minio

import (
	"context"
	"io"
	"strings"

	"github.com/koustreak/dbchat/internal/errs"
	"github.com/koustreak/dbchat/internal/filestore"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Driver is a MinIO implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	bucket string
	region string
}

// New connects to MinIO using cfg, creates the bucket when missing and
// returns a Driver.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "bucket is required")
	}
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	d := &Driver{client: client, bucket: cfg.Bucket, region: cfg.Region}

	if err := d.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// --- filestore.Store implementation ---

// Ping verifies the MinIO server is reachable by probing the bucket.
func (d *Driver) Ping(ctx context.Context) error {
	if _, err := d.client.BucketExists(ctx, d.bucket); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close is a no-op for MinIO; the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) EnsureBucket(ctx context.Context) error {
	ok, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "failed to check bucket")
	}
	if ok {
		return nil
	}
	err = d.client.MakeBucket(ctx, d.bucket, miniogo.MakeBucketOptions{Region: d.region})
	if err != nil {
		if bucketOwned(err) {
			return nil
		}
		return mapError(err, "failed to create bucket")
	}
	return nil
}

func (d *Driver) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := d.client.PutObject(ctx, d.bucket, key, r, size, miniogo.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return mapError(err, "failed to put object")
	}
	return nil
}

// GetObject opens a streaming handle to the object at key.
// The caller MUST call Object.Close() after reading.
func (d *Driver) GetObject(ctx context.Context, key string) (filestore.Object, error) {
	obj, err := d.client.GetObject(ctx, d.bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get object")
	}

	// GetObject is lazy; Stat surfaces a missing key.
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, mapError(err, "failed to stat object after get")
	}

	return &object{
		ReadCloser: obj,
		info: &filestore.ObjectInfo{
			Key:          key,
			Size:         stat.Size,
			ContentType:  stat.ContentType,
			ETag:         stat.ETag,
			LastModified: stat.LastModified,
		},
	}, nil
}

func (d *Driver) ListObjects(ctx context.Context, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	listOpts := miniogo.ListObjectsOptions{
		Prefix:    opts.Prefix,
		Recursive: opts.Recursive,
	}

	var results []filestore.ObjectInfo
	for obj := range d.client.ListObjects(ctx, d.bucket, listOpts) {
		if obj.Err != nil {
			return nil, mapError(obj.Err, "failed to list objects")
		}

		results = append(results, filestore.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
			IsDir:        strings.HasSuffix(obj.Key, "/"),
		})

		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
	}

	return results, nil
}

func (d *Driver) RemoveObject(ctx context.Context, key string) error {
	if err := d.client.RemoveObject(ctx, d.bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return mapError(err, "failed to remove object")
	}
	return nil
}

// --- internal types ---

// object wraps a MinIO GetObject response and exposes filestore.Object.
type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo {
	return o.info
}
