// Package blob abstracts the object store holding document content, export
// bundles and synchronizer reports.
package blob

import (
	"context"
	"time"
)

// ObjectStore defines the object operations the services depend on.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// CopyFrom server-side copies an object from another bucket into this one.
	CopyFrom(ctx context.Context, sourceBucket, sourceKey, destKey string) error
	// PresignGet returns a time-limited download URL for the given key.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Bucket() string
}
