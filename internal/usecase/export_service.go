package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/blob"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/internal/storage"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

// acceptedSuffix marks a missing-document entry whose content exists but has
// not passed review, in accepted-only exports.
const acceptedSuffix = "_ACCEPTED"

// CreateExportInput carries one export request.
type CreateExportInput struct {
	ClientID     string
	AcceptedOnly bool
	TTL          time.Duration
	RequestedBy  string
}

// ExportService assembles expediente bundles and serves time-limited
// download links for them.
type ExportService struct {
	documents  storage.DocumentRepo
	clients    *ClientService
	exports    storage.ExportJobRepo
	store      blob.ObjectStore
	audit      *AuditRecorder
	defaultTTL time.Duration
	maxTTL     time.Duration
	now        func() time.Time
}

// NewExportService creates a new export service.
func NewExportService(
	documents storage.DocumentRepo,
	clients *ClientService,
	exports storage.ExportJobRepo,
	store blob.ObjectStore,
	audit *AuditRecorder,
	defaultTTL, maxTTL time.Duration,
) *ExportService {
	return &ExportService{
		documents:  documents,
		clients:    clients,
		exports:    exports,
		store:      store,
		audit:      audit,
		defaultTTL: defaultTTL,
		maxTTL:     maxTTL,
		now:        utils.Now,
	}
}

// CreateExport assembles the client's expediente into a zip archive, uploads
// it and registers the export job. The bundle must be complete: every
// required document type present, and, when AcceptedOnly is set, accepted.
// Otherwise the request fails with a MissingDocumentsError naming what is
// absent and nothing is written.
func (s *ExportService) CreateExport(ctx context.Context, input CreateExportInput) (*model.ExportJob, error) {
	startTime := s.now()

	client, err := s.clients.GetByID(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	if client.PassportOrNIE == "" {
		observer.IncExportFailure("missing_identity")
		return nil, fmt.Errorf("%w: client %s has no passport or NIE on file", apperrors.ErrValidation, client.ID)
	}

	documents, err := s.documents.FindDocumentsByClient(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}

	byType := make(map[model.DocumentType]model.Document, len(documents))
	for _, doc := range documents {
		byType[doc.DocumentType] = doc
	}

	// Under AcceptedOnly every missing entry carries the suffix, whether the
	// slot is empty or merely unreviewed.
	var missing []string
	for _, required := range model.RequiredDocumentTypes() {
		entry := string(required)
		if input.AcceptedOnly {
			entry += acceptedSuffix
		}
		doc, ok := byType[required]
		if !ok {
			missing = append(missing, entry)
			continue
		}
		if input.AcceptedOnly && doc.ReviewStatus != model.ReviewStatusAccepted {
			missing = append(missing, entry)
		}
	}
	if len(missing) > 0 {
		observer.IncExportFailure("missing_documents")
		return nil, apperrors.NewMissingDocuments(missing)
	}

	// Both halves of the folder name go through the sanitizer, so the
	// identity number lowercases like the name does.
	name := sanitizeName(client.Name)
	bundleName := fmt.Sprintf("%s_%s", name, sanitizeName(client.PassportOrNIE))
	label := identityLabel(client.PassportOrNIE)

	entryNames := map[model.DocumentType]string{
		model.DocumentTypeTasa:        fmt.Sprintf("Tasa_%s.pdf", name),
		model.DocumentTypePassportNIE: fmt.Sprintf("%s_%s.pdf", label, name),
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, required := range model.RequiredDocumentTypes() {
		doc := byType[required]
		data, downloadErr := s.store.Download(ctx, doc.StoragePath)
		if downloadErr != nil {
			zw.Close()
			observer.IncExportFailure("object_fetch")
			return nil, downloadErr
		}

		entry, entryErr := zw.Create(fmt.Sprintf("%s/%s", bundleName, entryNames[required]))
		if entryErr != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to create archive entry: %w", entryErr)
		}
		if _, writeErr := entry.Write(data); writeErr != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write archive entry: %w", writeErr)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	ttl := s.clampTTL(input.TTL)
	job := model.ExportJob{
		ID:           uuid.NewString(),
		ClientID:     input.ClientID,
		Filename:     bundleName + ".zip",
		Status:       model.ExportStatusReady,
		AcceptedOnly: input.AcceptedOnly,
		FileSize:     int64(buf.Len()),
		ExpiresAt:    s.now().Add(ttl),
		RequestedBy:  input.RequestedBy,
	}
	job.StoragePath = blob.ExportKey(input.ClientID, job.ID, bundleName)

	if err := s.store.Upload(ctx, job.StoragePath, buf.Bytes(), blob.ContentTypeZip); err != nil {
		observer.IncExportFailure("object_store")
		return nil, err
	}
	if err := s.exports.Create(ctx, job); err != nil {
		return nil, err
	}

	observer.IncExportCreated()
	observer.ObserveExportDuration(s.now().Sub(startTime))
	s.audit.Record(ctx, input.ClientID, model.AuditExportCreated, input.RequestedBy, map[string]interface{}{
		"export_id":     job.ID,
		"storage_path":  job.StoragePath,
		"accepted_only": input.AcceptedOnly,
		"expires_at":    job.ExpiresAt,
	})
	logger.FromContext(ctx).Info("Created expediente export",
		zap.String("export_id", job.ID),
		zap.String("client_id", input.ClientID),
		zap.Int64("file_size", job.FileSize),
		zap.Time("expires_at", job.ExpiresAt))

	return &job, nil
}

// SignedURL returns a presigned download link for an export. Expiry is
// enforced on the job row itself, regardless of whether the object still
// exists, and the link never outlives the job's remaining lifetime.
func (s *ExportService) SignedURL(ctx context.Context, exportID string, requestedTTL time.Duration) (string, error) {
	job, err := s.exports.FindByID(ctx, exportID)
	if err != nil {
		return "", err
	}

	now := s.now()
	if job.Expired(now) {
		return "", fmt.Errorf("%w: export %s expired at %s", apperrors.ErrExpired, exportID, job.ExpiresAt.Format(time.RFC3339))
	}

	ttl := s.clampTTL(requestedTTL)
	if remaining := job.ExpiresAt.Sub(now); ttl > remaining {
		ttl = remaining
	}

	return s.store.PresignGet(ctx, job.StoragePath, ttl)
}

// GetJob returns an export job by primary key.
func (s *ExportService) GetJob(ctx context.Context, exportID string) (*model.ExportJob, error) {
	return s.exports.FindByID(ctx, exportID)
}

func (s *ExportService) clampTTL(requested time.Duration) time.Duration {
	ttl := requested
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if s.maxTTL > 0 && ttl > s.maxTTL {
		ttl = s.maxTTL
	}
	return ttl
}
