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

// SaveClient inserts a new client row.
func (r *PostgresRepo) SaveClient(ctx context.Context, client model.Client) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Create(&client)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveClient Commit", operation)
	observer.ObserveDbOperationDuration("insert", "client", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save client after retries",
			zap.String("client_id", client.ID), zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// UpdateClient updates the mutable columns of an existing client.
func (r *PostgresRepo) UpdateClient(ctx context.Context, client model.Client) error {
	client.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Client{}).
			Where("id = ?", client.ID).
			Select(model.ClientUpdatableFields()).
			Updates(&client)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: client not found for update (ID: %s)", apperrors.ErrNotFound, client.ID)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateClient Commit", operation)
	observer.ObserveDbOperationDuration("update", "client", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update client after retries",
			zap.String("client_id", client.ID), zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// UpsertClient inserts the client or, when the phone number is already
// registered, rewrites the mutable columns of the existing row. Used by the
// synchronizer so reruns converge instead of duplicating.
func (r *PostgresRepo) UpsertClient(ctx context.Context, client model.Client) error {
	client.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone_number"}},
			DoUpdates: clause.AssignmentColumns(model.ClientUpdatableFields()),
		}).Create(&client)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpsertClient Commit", operation)
	observer.ObserveDbOperationDuration("upsert", "client", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to upsert client after retries",
			zap.String("phone_number", client.PhoneNumber), zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// FindClientByID retrieves a client by primary key.
func (r *PostgresRepo) FindClientByID(ctx context.Context, id string) (*model.Client, error) {
	var client model.Client

	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ?", id).First(&client)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: client not found (ID: %s)", apperrors.ErrNotFound, id)
			}
			return fmt.Errorf("%w: failed to find client by ID: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindClientByID Read", operation)
	observer.ObserveDbOperationDuration("find", "client", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &client, nil
}

// FindClientByPhone retrieves a client by its phone number.
func (r *PostgresRepo) FindClientByPhone(ctx context.Context, phoneNumber string) (*model.Client, error) {
	var client model.Client

	operation := func() error {
		result := r.db.WithContext(ctx).Where("phone_number = ?", phoneNumber).First(&client)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: client not found (phone: %s)", apperrors.ErrNotFound, phoneNumber)
			}
			return fmt.Errorf("%w: failed to find client by phone: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindClientByPhone Read", operation)
	observer.ObserveDbOperationDuration("find", "client", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &client, nil
}

// ListClients returns a stable page of clients ordered by creation time.
func (r *PostgresRepo) ListClients(ctx context.Context, limit, offset int) ([]model.Client, error) {
	var clients []model.Client

	operation := func() error {
		result := r.db.WithContext(ctx).
			Order("created_at ASC").
			Limit(limit).
			Offset(offset).
			Find(&clients)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to list clients: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListClients Read", operation)
	observer.ObserveDbOperationDuration("list", "client", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return clients, nil
}
