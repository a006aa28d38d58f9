package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
)

func TestRouter_RoutesToRegisteredHandler(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")
	router := NewRouter()

	var handled []byte
	router.Register(SubjectMessages, func(ctx context.Context, metadata *MessageMetadata, rawEvent []byte) error {
		handled = rawEvent
		return nil
	})

	err := router.Route(context.Background(), testMetadata(SubjectMessages), []byte(`{"a":1}`))

	assert.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), handled)
}

func TestRouter_UnknownSubjectUsesDefault(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")
	router := NewRouter()

	defaultCalled := false
	router.RegisterDefault(func(ctx context.Context, metadata *MessageMetadata, rawEvent []byte) error {
		defaultCalled = true
		return nil
	})

	err := router.Route(context.Background(), testMetadata("v1.webhook.unknown"), nil)

	assert.NoError(t, err)
	assert.True(t, defaultCalled)
}

func TestRouter_UnknownSubjectWithoutDefaultIsDropped(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")
	router := NewRouter()

	err := router.Route(context.Background(), testMetadata("v1.webhook.unknown"), nil)

	assert.NoError(t, err)
}

func TestRouter_PropagatesHandlerError(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")
	router := NewRouter()

	boom := errors.New("boom")
	router.Register(SubjectMedia, func(ctx context.Context, metadata *MessageMetadata, rawEvent []byte) error {
		return boom
	})

	err := router.Route(context.Background(), testMetadata(SubjectMedia), nil)

	assert.ErrorIs(t, err, boom)
}
