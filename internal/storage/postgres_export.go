package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

// CreateExportJob inserts a new export job row.
func (r *PostgresRepo) CreateExportJob(ctx context.Context, job model.ExportJob) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Create(&job)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "CreateExportJob Commit", operation)
	observer.ObserveDbOperationDuration("insert", "export_job", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to create export job after retries",
			zap.String("export_id", job.ID),
			zap.String("client_id", job.ClientID),
			zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// FindExportJobByID retrieves an export job by primary key.
func (r *PostgresRepo) FindExportJobByID(ctx context.Context, id string) (*model.ExportJob, error) {
	var job model.ExportJob

	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ?", id).First(&job)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: export job not found (ID: %s)", apperrors.ErrNotFound, id)
			}
			return fmt.Errorf("%w: failed to find export job by ID: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindExportJobByID Read", operation)
	observer.ObserveDbOperationDuration("find", "export_job", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &job, nil
}
