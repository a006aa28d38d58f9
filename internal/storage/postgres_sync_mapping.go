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

// SaveSyncMapping records a source-to-target identifier mapping. Mappings are
// write-once: a second save for the same (source_id, entity_type) is a no-op,
// so synchronizer reruns never rewrite history.
func (r *PostgresRepo) SaveSyncMapping(ctx context.Context, mapping model.SyncMapping) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_id"}, {Name: "entity_type"}},
			DoNothing: true,
		}).Create(&mapping)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveSyncMapping Commit", operation)
	observer.ObserveDbOperationDuration("insert", "sync_mapping", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save sync mapping after retries",
			zap.String("source_id", mapping.SourceID),
			zap.String("entity_type", mapping.EntityType),
			zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// FindSyncMappingBySource retrieves the mapping for one source identifier.
func (r *PostgresRepo) FindSyncMappingBySource(ctx context.Context, sourceID, entityType string) (*model.SyncMapping, error) {
	var mapping model.SyncMapping

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("source_id = ? AND entity_type = ?", sourceID, entityType).
			First(&mapping)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: sync mapping not found (source: %s, entity: %s)", apperrors.ErrNotFound, sourceID, entityType)
			}
			return fmt.Errorf("%w: failed to find sync mapping: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindSyncMappingBySource Read", operation)
	observer.ObserveDbOperationDuration("find", "sync_mapping", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &mapping, nil
}

// FindSyncMappingsByEntityType returns every mapping of one entity type. The
// synchronizer preloads these into its translation table before each pass.
func (r *PostgresRepo) FindSyncMappingsByEntityType(ctx context.Context, entityType string) ([]model.SyncMapping, error) {
	var mappings []model.SyncMapping

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("entity_type = ?", entityType).
			Find(&mappings)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to find sync mappings by entity type: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindSyncMappingsByEntityType Read", operation)
	observer.ObserveDbOperationDuration("find", "sync_mapping", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return mappings, nil
}
