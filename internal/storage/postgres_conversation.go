package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

// InsertConversationIfAbsent inserts the conversation unless a row with the
// same dedupe fingerprint already exists. Redelivered webhook events hit the
// unique index and are silently dropped; the return value reports whether a
// row was actually written.
func (r *PostgresRepo) InsertConversationIfAbsent(ctx context.Context, conversation model.Conversation) (bool, error) {
	var inserted bool

	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedupe_fingerprint"}},
			DoNothing: true,
		}).Create(&conversation)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		inserted = result.RowsAffected > 0
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "InsertConversationIfAbsent Commit", operation)
	observer.ObserveDbOperationDuration("insert", "conversation", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to insert conversation after retries",
			zap.String("fingerprint", conversation.DedupeFingerprint), zap.Error(commitErr))
		return false, commitErr
	}

	return inserted, nil
}

// FindConversationByFingerprint retrieves a conversation by its dedupe fingerprint.
func (r *PostgresRepo) FindConversationByFingerprint(ctx context.Context, fingerprint string) (*model.Conversation, error) {
	var conversation model.Conversation

	operation := func() error {
		result := r.db.WithContext(ctx).Where("dedupe_fingerprint = ?", fingerprint).First(&conversation)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: conversation not found (fingerprint: %s)", apperrors.ErrNotFound, fingerprint)
			}
			return fmt.Errorf("%w: failed to find conversation by fingerprint: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindConversationByFingerprint Read", operation)
	observer.ObserveDbOperationDuration("find", "conversation", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &conversation, nil
}

// FindConversationsByClient returns a page of a client's conversations, oldest first.
func (r *PostgresRepo) FindConversationsByClient(ctx context.Context, clientID string, limit, offset int) ([]model.Conversation, error) {
	var conversations []model.Conversation

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("client_id = ?", clientID).
			Order("created_at ASC").
			Limit(limit).
			Offset(offset).
			Find(&conversations)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to find conversations by client: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindConversationsByClient Read", operation)
	observer.ObserveDbOperationDuration("find", "conversation", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return conversations, nil
}

// ListConversations returns a stable page of conversations ordered by creation time.
func (r *PostgresRepo) ListConversations(ctx context.Context, limit, offset int) ([]model.Conversation, error) {
	var conversations []model.Conversation

	operation := func() error {
		result := r.db.WithContext(ctx).
			Order("created_at ASC").
			Limit(limit).
			Offset(offset).
			Find(&conversations)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to list conversations: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListConversations Read", operation)
	observer.ObserveDbOperationDuration("list", "conversation", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return conversations, nil
}
