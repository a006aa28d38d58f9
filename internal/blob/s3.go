package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
)

// S3Options configures the S3-backed object store.
type S3Options struct {
	Bucket         string
	Region         string
	Endpoint       string // Optional custom endpoint (minio, localstack)
	ForcePathStyle bool
}

// S3ObjectStore implements ObjectStore on top of an S3-compatible bucket.
type S3ObjectStore struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewS3ObjectStore builds an S3 client from the default credential chain and
// binds it to one bucket.
func NewS3ObjectStore(ctx context.Context, opts S3Options) (*S3ObjectStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("%w: blob bucket is required", apperrors.ErrBadRequest)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return &S3ObjectStore{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    opts.Bucket,
	}, nil
}

// NewS3ObjectStoreWithClient binds an existing client to a bucket. Used by
// tests and by the synchronizer, which talks to two buckets over one client.
func NewS3ObjectStoreWithClient(client *s3.Client, bucket string) *S3ObjectStore {
	return &S3ObjectStore{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
	}
}

// Bucket returns the bucket this store is bound to.
func (s *S3ObjectStore) Bucket() string {
	return s.bucket
}

// Upload writes an object.
func (s *S3ObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		logger.FromContext(ctx).Error("Failed to upload object",
			zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: put %s: %w", apperrors.ErrObjectStore, key, err)
	}
	return nil
}

// Download reads an object into memory.
func (s *S3ObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: object %s", apperrors.ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: get %s: %w", apperrors.ErrObjectStore, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", apperrors.ErrObjectStore, key, err)
	}
	return data, nil
}

// Exists reports whether an object is present, without fetching its body.
func (s *S3ObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: head %s: %w", apperrors.ErrObjectStore, key, err)
	}
	return true, nil
}

// CopyFrom server-side copies an object from another bucket into this one.
func (s *S3ObjectStore) CopyFrom(ctx context.Context, sourceBucket, sourceKey, destKey string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(destKey),
		CopySource: aws.String(fmt.Sprintf("%s/%s", sourceBucket, sourceKey)),
	})
	if err != nil {
		logger.FromContext(ctx).Error("Failed to copy object",
			zap.String("source_bucket", sourceBucket),
			zap.String("source_key", sourceKey),
			zap.String("dest_key", destKey),
			zap.Error(err))
		return fmt.Errorf("%w: copy %s/%s: %w", apperrors.ErrObjectStore, sourceBucket, sourceKey, err)
	}
	return nil
}

// PresignGet returns a time-limited download URL for the given key.
func (s *S3ObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %w", apperrors.ErrObjectStore, key, err)
	}
	return req.URL, nil
}
