package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/blob"
	"gitlab.com/migralia/api/expediente-docs-service/internal/digest"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/internal/storage"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
)

// versionAllocationAttempts bounds the compare-and-retry loop that allocates
// version numbers under concurrent uploads.
const versionAllocationAttempts = 3

// Upload outcome labels reported to metrics.
const (
	outcomeNewVersion = "new_version"
	outcomeDuplicate  = "duplicate"
	outcomeConflict   = "conflict"
	outcomeError      = "error"
)

// UploadDocumentInput carries one document upload.
type UploadDocumentInput struct {
	ClientID       string
	DocumentType   model.DocumentType
	Filename       string
	MimeType       string
	Data           []byte
	ConversationID *string
	Actor          string
}

// UploadResult reports what an upload did: a fresh version, or a no-op
// against byte-identical existing content.
type UploadResult struct {
	Document  *model.Document
	Version   *model.DocumentVersion
	Duplicate bool
}

// DocumentService manages content-addressed document versions and review
// decisions.
type DocumentService struct {
	documents     storage.DocumentRepo
	clientService *ClientService
	store         blob.ObjectStore
	audit         *AuditRecorder
}

// NewDocumentService creates a new document service.
func NewDocumentService(documents storage.DocumentRepo, clientService *ClientService, store blob.ObjectStore, audit *AuditRecorder) *DocumentService {
	return &DocumentService{
		documents:     documents,
		clientService: clientService,
		store:         store,
		audit:         audit,
	}
}

// Upload stores one document. Byte-identical re-uploads of content already
// held for the (client, type) pair are acknowledged without writing anything.
// Otherwise a new version is appended and becomes the current document, with
// review state reset to pending. Version numbers are allocated by
// compare-and-retry; when the loop exhausts its attempts the upload fails
// with ErrConflict and no partial row.
func (s *DocumentService) Upload(ctx context.Context, input UploadDocumentInput) (*UploadResult, error) {
	if err := s.validateUpload(input); err != nil {
		observer.IncUploadOutcome(string(input.DocumentType), outcomeError)
		return nil, err
	}

	client, err := s.clientService.GetByID(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}

	contentDigest := digest.Sum(input.Data)

	if result, found, err := s.findExisting(ctx, client, input, contentDigest); err != nil {
		return nil, err
	} else if found {
		return result, nil
	}

	profile := strings.ToLower(string(client.ProfileType))
	folder := blob.ClientFolder(sanitizeName(client.Name), shortID(client.ID))
	storagePath := blob.DocumentKey(profile, folder, uuid.NewString(), input.Filename)

	if err := s.store.Upload(ctx, storagePath, input.Data, input.MimeType); err != nil {
		observer.IncUploadOutcome(string(input.DocumentType), outcomeError)
		return nil, err
	}

	for attempt := 1; attempt <= versionAllocationAttempts; attempt++ {
		maxNumber, err := s.documents.MaxVersionNumber(ctx, input.ClientID, input.DocumentType)
		if err != nil {
			return nil, err
		}

		version := model.DocumentVersion{
			ID:               uuid.NewString(),
			ClientID:         input.ClientID,
			DocumentType:     input.DocumentType,
			VersionNumber:    maxNumber + 1,
			ContentDigest:    contentDigest,
			StoragePath:      storagePath,
			OriginalFilename: input.Filename,
			MimeType:         input.MimeType,
			FileSize:         int64(len(input.Data)),
		}
		document := model.Document{
			ID:               uuid.NewString(),
			ClientID:         input.ClientID,
			ConversationID:   input.ConversationID,
			DocumentType:     input.DocumentType,
			StoragePath:      storagePath,
			OriginalFilename: input.Filename,
			MimeType:         input.MimeType,
			FileSize:         int64(len(input.Data)),
			ProfileType:      client.ProfileType,
			ReviewStatus:     model.ReviewStatusPending,
		}

		createErr := s.documents.CreateVersionAndSetCurrent(ctx, version, document)
		if createErr == nil {
			current, findErr := s.documents.FindDocumentByClientAndType(ctx, input.ClientID, input.DocumentType)
			if findErr != nil {
				return nil, findErr
			}

			observer.IncUploadOutcome(string(input.DocumentType), outcomeNewVersion)
			s.audit.Record(ctx, input.ClientID, model.AuditDocumentUploaded, input.Actor, map[string]interface{}{
				"document_type":  string(input.DocumentType),
				"version_number": version.VersionNumber,
				"content_digest": contentDigest,
				"storage_path":   storagePath,
			})
			logger.FromContext(ctx).Info("Stored new document version",
				zap.String("client_id", input.ClientID),
				zap.String("document_type", string(input.DocumentType)),
				zap.Int("version_number", version.VersionNumber))

			return &UploadResult{Document: current, Version: &version}, nil
		}

		if !errors.Is(createErr, apperrors.ErrDuplicate) {
			observer.IncUploadOutcome(string(input.DocumentType), outcomeError)
			return nil, createErr
		}

		// A unique-index hit means a concurrent writer got in first: either
		// it stored the same bytes (digest index) or it claimed our version
		// number. Re-check the digest before reallocating.
		if result, found, err := s.findExisting(ctx, client, input, contentDigest); err != nil {
			return nil, err
		} else if found {
			return result, nil
		}

		logger.FromContext(ctx).Warn("Version number contention, reallocating",
			zap.String("client_id", input.ClientID),
			zap.String("document_type", string(input.DocumentType)),
			zap.Int("attempt", attempt))
	}

	observer.IncUploadOutcome(string(input.DocumentType), outcomeConflict)
	return nil, fmt.Errorf("%w: version allocation exhausted after %d attempts (client: %s, type: %s)",
		apperrors.ErrConflict, versionAllocationAttempts, input.ClientID, input.DocumentType)
}

// findExisting resolves the duplicate-upload path: when the digest is already
// recorded for the pair, acknowledge without writing.
func (s *DocumentService) findExisting(ctx context.Context, client *model.Client, input UploadDocumentInput, contentDigest string) (*UploadResult, bool, error) {
	existing, err := s.documents.FindVersionByDigest(ctx, input.ClientID, input.DocumentType, contentDigest)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	current, err := s.documents.FindDocumentByClientAndType(ctx, input.ClientID, input.DocumentType)
	if err != nil {
		return nil, false, err
	}

	observer.IncUploadOutcome(string(input.DocumentType), outcomeDuplicate)
	s.audit.Record(ctx, input.ClientID, model.AuditDuplicateUploadIgnored, input.Actor, map[string]interface{}{
		"document_type":  string(input.DocumentType),
		"content_digest": contentDigest,
		"version_number": existing.VersionNumber,
	})
	logger.FromContext(ctx).Info("Ignoring duplicate upload",
		zap.String("client_id", input.ClientID),
		zap.String("document_type", string(input.DocumentType)),
		zap.String("content_digest", contentDigest))

	return &UploadResult{Document: current, Version: existing, Duplicate: true}, true, nil
}

func (s *DocumentService) validateUpload(input UploadDocumentInput) error {
	if input.ClientID == "" {
		return fmt.Errorf("%w: client ID is required", apperrors.ErrValidation)
	}
	if !input.DocumentType.Valid() {
		return fmt.Errorf("%w: unknown document type %q", apperrors.ErrValidation, input.DocumentType)
	}
	if input.Filename == "" {
		return fmt.Errorf("%w: filename is required", apperrors.ErrValidation)
	}
	if len(input.Data) == 0 {
		return fmt.Errorf("%w: document content is empty", apperrors.ErrValidation)
	}
	return nil
}

// Review records an accept or reject decision on the current document of a
// type. Rejections must carry a non-empty note explaining the decision.
func (s *DocumentService) Review(ctx context.Context, documentID string, decision model.ReviewStatus, note, actor string) (*model.Document, error) {
	if decision != model.ReviewStatusAccepted && decision != model.ReviewStatusRejected {
		return nil, fmt.Errorf("%w: review decision must be accepted or rejected, got %q", apperrors.ErrValidation, decision)
	}
	trimmedNote := trimNote(note)
	if decision == model.ReviewStatusRejected && trimmedNote == "" {
		return nil, fmt.Errorf("%w: rejection requires a non-empty note", apperrors.ErrValidation)
	}

	var notePtr *string
	if trimmedNote != "" {
		notePtr = &trimmedNote
	}

	if err := s.documents.UpdateReview(ctx, documentID, decision, notePtr); err != nil {
		return nil, err
	}

	document, err := s.documents.FindDocumentByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	observer.IncReviewDecision(string(decision))
	s.audit.Record(ctx, document.ClientID, model.AuditDocumentReviewed, actor, map[string]interface{}{
		"document_id":   documentID,
		"document_type": string(document.DocumentType),
		"decision":      string(decision),
		"note":          trimmedNote,
	})

	return document, nil
}

// Get returns the current document of a type for a client.
func (s *DocumentService) Get(ctx context.Context, clientID string, documentType model.DocumentType) (*model.Document, error) {
	return s.documents.FindDocumentByClientAndType(ctx, clientID, documentType)
}

// ListForClient returns every current document a client has.
func (s *DocumentService) ListForClient(ctx context.Context, clientID string) ([]model.Document, error) {
	return s.documents.FindDocumentsByClient(ctx, clientID)
}

// History returns the full version history for a (client, type) pair.
func (s *DocumentService) History(ctx context.Context, clientID string, documentType model.DocumentType) ([]model.DocumentVersion, error) {
	return s.documents.ListVersions(ctx, clientID, documentType)
}
