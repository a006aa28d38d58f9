package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// ObjectStoreMock mocks the blob.ObjectStore interface
type ObjectStoreMock struct {
	mock.Mock
}

func (m *ObjectStoreMock) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *ObjectStoreMock) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *ObjectStoreMock) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *ObjectStoreMock) CopyFrom(ctx context.Context, sourceBucket, sourceKey, destKey string) error {
	args := m.Called(ctx, sourceBucket, sourceKey, destKey)
	return args.Error(0)
}

func (m *ObjectStoreMock) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *ObjectStoreMock) Bucket() string {
	args := m.Called()
	return args.String(0)
}
