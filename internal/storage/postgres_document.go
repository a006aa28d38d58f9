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

// CreateVersionAndSetCurrent appends a version row and moves the current
// pointer onto it in one transaction. The document upsert keys on
// (client_id, document_type) and always resets review state to pending; the
// version insert relies on the unique (client_id, document_type,
// version_number) index, so a concurrent writer that claimed the same number
// surfaces as ErrDuplicate and the caller reallocates.
func (r *PostgresRepo) CreateVersionAndSetCurrent(ctx context.Context, version model.DocumentVersion, document model.Document) error {
	operation := func() error {
		tx := r.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, tx.Error)
		}
		var txErr error
		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			} else if txErr != nil {
				if rbErr := tx.Rollback().Error; rbErr != nil {
					logger.FromContext(ctx).Error("Failed to rollback transaction after error",
						zap.Error(rbErr), zap.NamedError("originalTxError", txErr))
				}
			}
		}()

		// Upsert the current-document pointer. On conflict the existing row
		// keeps its identity but its content columns are rewritten.
		document.UpdatedAt = utils.Now()
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "document_type"}},
			DoUpdates: clause.AssignmentColumns(model.DocumentReplaceFields()),
		}).Create(&document)
		if result.Error != nil {
			txErr = checkConstraintViolation(result.Error)
			return txErr
		}

		// Resolve the surviving document ID: on conflict it is the old row's,
		// not the one we just generated.
		var current model.Document
		result = tx.Where("client_id = ? AND document_type = ?", document.ClientID, document.DocumentType).
			First(&current)
		if result.Error != nil {
			txErr = checkConstraintViolation(result.Error)
			return txErr
		}

		// Detach superseded versions from the current pointer.
		result = tx.Model(&model.DocumentVersion{}).
			Where("client_id = ? AND document_type = ? AND document_id IS NOT NULL",
				version.ClientID, version.DocumentType).
			Update("document_id", nil)
		if result.Error != nil {
			txErr = checkConstraintViolation(result.Error)
			return txErr
		}

		version.DocumentID = &current.ID
		result = tx.Create(&version)
		if result.Error != nil {
			txErr = checkConstraintViolation(result.Error)
			return txErr
		}

		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = checkConstraintViolation(commitErr)
			return txErr
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "CreateVersionAndSetCurrent Commit", operation)
	observer.ObserveDbOperationDuration("upsert", "document_version", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to create document version after retries",
			zap.String("client_id", version.ClientID),
			zap.String("document_type", string(version.DocumentType)),
			zap.Int("version_number", version.VersionNumber),
			zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// FindVersionByDigest retrieves the version holding the given content digest
// for a (client, type) pair, if any.
func (r *PostgresRepo) FindVersionByDigest(ctx context.Context, clientID string, documentType model.DocumentType, digest string) (*model.DocumentVersion, error) {
	var version model.DocumentVersion

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("client_id = ? AND document_type = ? AND content_digest = ?", clientID, documentType, digest).
			First(&version)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: version not found (client: %s, type: %s)", apperrors.ErrNotFound, clientID, documentType)
			}
			return fmt.Errorf("%w: failed to find version by digest: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindVersionByDigest Read", operation)
	observer.ObserveDbOperationDuration("find", "document_version", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &version, nil
}

// MaxVersionNumber returns the highest allocated version number for a
// (client, type) pair, or zero when no version exists yet.
func (r *PostgresRepo) MaxVersionNumber(ctx context.Context, clientID string, documentType model.DocumentType) (int, error) {
	var maxNumber int

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.DocumentVersion{}).
			Where("client_id = ? AND document_type = ?", clientID, documentType).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&maxNumber)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to read max version number: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "MaxVersionNumber Read", operation)
	observer.ObserveDbOperationDuration("find", "document_version", time.Since(startTime), readErr)

	if readErr != nil {
		return 0, readErr
	}
	return maxNumber, nil
}

// ListVersions returns the full version history for a (client, type) pair,
// oldest first.
func (r *PostgresRepo) ListVersions(ctx context.Context, clientID string, documentType model.DocumentType) ([]model.DocumentVersion, error) {
	var versions []model.DocumentVersion

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("client_id = ? AND document_type = ?", clientID, documentType).
			Order("version_number ASC").
			Find(&versions)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to list versions: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListVersions Read", operation)
	observer.ObserveDbOperationDuration("list", "document_version", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return versions, nil
}

// CreateDocument inserts a document row as-is. Used by the synchronizer when
// replaying a source row into the target store.
func (r *PostgresRepo) CreateDocument(ctx context.Context, document model.Document) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Create(&document)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "CreateDocument Commit", operation)
	observer.ObserveDbOperationDuration("insert", "document", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to create document after retries",
			zap.String("document_id", document.ID), zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// UpdateDocument rewrites the mutable columns of an existing document row.
func (r *PostgresRepo) UpdateDocument(ctx context.Context, document model.Document) error {
	document.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Document{}).
			Where("id = ?", document.ID).
			Select(model.DocumentReplaceFields()).
			Updates(&document)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: document not found for update (ID: %s)", apperrors.ErrNotFound, document.ID)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateDocument Commit", operation)
	observer.ObserveDbOperationDuration("update", "document", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update document after retries",
			zap.String("document_id", document.ID), zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// UpdateReview records an accept/reject decision on the current document.
func (r *PostgresRepo) UpdateReview(ctx context.Context, documentID string, status model.ReviewStatus, note *string) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Document{}).
			Where("id = ?", documentID).
			Updates(map[string]interface{}{
				"review_status": status,
				"review_note":   note,
				"updated_at":    utils.Now(),
			})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: document not found for review (ID: %s)", apperrors.ErrNotFound, documentID)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateReview Commit", operation)
	observer.ObserveDbOperationDuration("update", "document", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update review after retries",
			zap.String("document_id", documentID), zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// FindDocumentByID retrieves a document by primary key.
func (r *PostgresRepo) FindDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	var document model.Document

	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ?", id).First(&document)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document not found (ID: %s)", apperrors.ErrNotFound, id)
			}
			return fmt.Errorf("%w: failed to find document by ID: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindDocumentByID Read", operation)
	observer.ObserveDbOperationDuration("find", "document", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &document, nil
}

// FindDocumentByClientAndType retrieves the current document of a given type
// for a client.
func (r *PostgresRepo) FindDocumentByClientAndType(ctx context.Context, clientID string, documentType model.DocumentType) (*model.Document, error) {
	var document model.Document

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("client_id = ? AND document_type = ?", clientID, documentType).
			First(&document)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document not found (client: %s, type: %s)", apperrors.ErrNotFound, clientID, documentType)
			}
			return fmt.Errorf("%w: failed to find document by client and type: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindDocumentByClientAndType Read", operation)
	observer.ObserveDbOperationDuration("find", "document", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &document, nil
}

// FindDocumentsByClient returns every current document a client has.
func (r *PostgresRepo) FindDocumentsByClient(ctx context.Context, clientID string) ([]model.Document, error) {
	var documents []model.Document

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("client_id = ?", clientID).
			Order("document_type ASC").
			Find(&documents)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to find documents by client: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindDocumentsByClient Read", operation)
	observer.ObserveDbOperationDuration("find", "document", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return documents, nil
}

// FindDocumentByStoragePath retrieves a document by its unique object key.
func (r *PostgresRepo) FindDocumentByStoragePath(ctx context.Context, storagePath string) (*model.Document, error) {
	var document model.Document

	operation := func() error {
		result := r.db.WithContext(ctx).Where("storage_path = ?", storagePath).First(&document)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document not found (storage_path: %s)", apperrors.ErrNotFound, storagePath)
			}
			return fmt.Errorf("%w: failed to find document by storage path: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindDocumentByStoragePath Read", operation)
	observer.ObserveDbOperationDuration("find", "document", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &document, nil
}

// ListDocuments returns a stable page of documents ordered by upload time.
func (r *PostgresRepo) ListDocuments(ctx context.Context, limit, offset int) ([]model.Document, error) {
	var documents []model.Document

	operation := func() error {
		result := r.db.WithContext(ctx).
			Order("uploaded_at ASC").
			Limit(limit).
			Offset(offset).
			Find(&documents)
		if result.Error != nil {
			return fmt.Errorf("%w: failed to list documents: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListDocuments Read", operation)
	observer.ObserveDbOperationDuration("list", "document", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return documents, nil
}
