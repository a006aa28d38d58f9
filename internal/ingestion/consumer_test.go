package ingestion

import (
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
)

func TestDetermineAckAction(t *testing.T) {
	retryable := apperrors.NewRetryable(errors.New("db down"), "ingest")
	fatal := apperrors.NewFatal(errors.New("bad json"), "ingest")

	baseDelay := 2 * time.Second
	maxDelay := 30 * time.Second
	maxDeliver := 5

	tests := []struct {
		name         string
		err          error
		numDelivered uint64
		wantAction   AckAction
		wantDelay    time.Duration
	}{
		{
			name:       "success acks",
			err:        nil,
			wantAction: ActionAck,
		},
		{
			name:         "fatal error terminates on first delivery",
			err:          fatal,
			numDelivered: 1,
			wantAction:   ActionTerm,
		},
		{
			name:         "unwrapped error is treated as terminal",
			err:          errors.New("unclassified"),
			numDelivered: 1,
			wantAction:   ActionTerm,
		},
		{
			name:         "retryable first attempt gets base delay",
			err:          retryable,
			numDelivered: 1,
			wantAction:   ActionNakDelay,
			wantDelay:    2 * time.Second,
		},
		{
			name:         "retryable third attempt backs off exponentially",
			err:          retryable,
			numDelivered: 3,
			wantAction:   ActionNakDelay,
			wantDelay:    8 * time.Second,
		},
		{
			name:         "backoff is capped at the max delay",
			err:          retryable,
			numDelivered: 4,
			wantAction:   ActionNakDelay,
			wantDelay:    16 * time.Second,
		},
		{
			name:         "redelivery budget exhausted terminates",
			err:          retryable,
			numDelivered: 5,
			wantAction:   ActionTerm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metadata := &nats.MsgMetadata{NumDelivered: tt.numDelivered}

			action, delay := determineAckAction(tt.err, metadata, maxDeliver, baseDelay, maxDelay)

			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantDelay, delay)
		})
	}
}

func TestDetermineAckAction_DelayNeverExceedsMax(t *testing.T) {
	retryable := apperrors.NewRetryable(errors.New("db down"), "ingest")
	metadata := &nats.MsgMetadata{NumDelivered: 9}

	action, delay := determineAckAction(retryable, metadata, 20, 2*time.Second, 30*time.Second)

	assert.Equal(t, ActionNakDelay, action)
	assert.Equal(t, 30*time.Second, delay)
}
