package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

// AppendAuditEvent inserts an audit row. The table is append-only.
func (r *PostgresRepo) AppendAuditEvent(ctx context.Context, event model.AuditEvent) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Create(&event)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "AppendAuditEvent Commit", operation)
	observer.ObserveDbOperationDuration("insert", "audit_event", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to append audit event after retries",
			zap.String("event_type", event.EventType),
			zap.String("client_id", event.ClientID),
			zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// FindAuditEventsByClient returns a page of a client's audit trail, newest first.
func (r *PostgresRepo) FindAuditEventsByClient(ctx context.Context, clientID string, limit, offset int) ([]model.AuditEvent, error) {
	var events []model.AuditEvent

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("client_id = ?", clientID).
			Order("created_at DESC").
			Limit(limit).
			Offset(offset).
			Find(&events)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to find audit events by client: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindAuditEventsByClient Read", operation)
	observer.ObserveDbOperationDuration("find", "audit_event", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return events, nil
}
