package storage

import (
	"context"

	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
)

// ClientRepo defines client storage operations
type ClientRepo interface {
	Save(ctx context.Context, client model.Client) error
	Update(ctx context.Context, client model.Client) error
	Upsert(ctx context.Context, client model.Client) error
	FindByID(ctx context.Context, id string) (*model.Client, error)
	FindByPhone(ctx context.Context, phoneNumber string) (*model.Client, error)
	List(ctx context.Context, limit, offset int) ([]model.Client, error)
	Close(ctx context.Context) error
}

// ConversationRepo defines conversation storage operations
type ConversationRepo interface {
	// InsertIfAbsent inserts the conversation unless a row with the same
	// dedupe fingerprint already exists. It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, conversation model.Conversation) (bool, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*model.Conversation, error)
	FindByClient(ctx context.Context, clientID string, limit, offset int) ([]model.Conversation, error)
	List(ctx context.Context, limit, offset int) ([]model.Conversation, error)
	Close(ctx context.Context) error
}

// DocumentRepo defines current-document and version-history storage operations
type DocumentRepo interface {
	// CreateVersionAndSetCurrent atomically appends a version row and moves the
	// current-document pointer onto it, resetting review state to pending.
	CreateVersionAndSetCurrent(ctx context.Context, version model.DocumentVersion, document model.Document) error
	FindVersionByDigest(ctx context.Context, clientID string, documentType model.DocumentType, digest string) (*model.DocumentVersion, error)
	MaxVersionNumber(ctx context.Context, clientID string, documentType model.DocumentType) (int, error)
	ListVersions(ctx context.Context, clientID string, documentType model.DocumentType) ([]model.DocumentVersion, error)

	CreateDocument(ctx context.Context, document model.Document) error
	UpdateDocument(ctx context.Context, document model.Document) error
	UpdateReview(ctx context.Context, documentID string, status model.ReviewStatus, note *string) error
	FindDocumentByID(ctx context.Context, id string) (*model.Document, error)
	FindDocumentByClientAndType(ctx context.Context, clientID string, documentType model.DocumentType) (*model.Document, error)
	FindDocumentsByClient(ctx context.Context, clientID string) ([]model.Document, error)
	FindDocumentByStoragePath(ctx context.Context, storagePath string) (*model.Document, error)
	ListDocuments(ctx context.Context, limit, offset int) ([]model.Document, error)
	Close(ctx context.Context) error
}

// AuditEventRepo defines audit trail storage operations
type AuditEventRepo interface {
	Append(ctx context.Context, event model.AuditEvent) error
	FindByClient(ctx context.Context, clientID string, limit, offset int) ([]model.AuditEvent, error)
	Close(ctx context.Context) error
}

// ExportJobRepo defines export bundle storage operations
type ExportJobRepo interface {
	Create(ctx context.Context, job model.ExportJob) error
	FindByID(ctx context.Context, id string) (*model.ExportJob, error)
	Close(ctx context.Context) error
}

// SyncMappingRepo defines cross-store identifier mapping operations
type SyncMappingRepo interface {
	// Save records the mapping unless one already exists for the same
	// (source_id, entity_type) pair. Mappings are write-once.
	Save(ctx context.Context, mapping model.SyncMapping) error
	FindBySource(ctx context.Context, sourceID, entityType string) (*model.SyncMapping, error)
	FindByEntityType(ctx context.Context, entityType string) ([]model.SyncMapping, error)
	Close(ctx context.Context) error
}
