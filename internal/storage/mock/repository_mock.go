package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
)

// --- ClientRepo Mock ---

// ClientRepoMock mocks the ClientRepo interface
type ClientRepoMock struct {
	mock.Mock
}

func (m *ClientRepoMock) Save(ctx context.Context, client model.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *ClientRepoMock) Update(ctx context.Context, client model.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *ClientRepoMock) Upsert(ctx context.Context, client model.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *ClientRepoMock) FindByID(ctx context.Context, id string) (*model.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *ClientRepoMock) FindByPhone(ctx context.Context, phoneNumber string) (*model.Client, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *ClientRepoMock) List(ctx context.Context, limit, offset int) ([]model.Client, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Client), args.Error(1)
}

func (m *ClientRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- ConversationRepo Mock ---

// ConversationRepoMock mocks the ConversationRepo interface
type ConversationRepoMock struct {
	mock.Mock
}

func (m *ConversationRepoMock) InsertIfAbsent(ctx context.Context, conversation model.Conversation) (bool, error) {
	args := m.Called(ctx, conversation)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepoMock) FindByFingerprint(ctx context.Context, fingerprint string) (*model.Conversation, error) {
	args := m.Called(ctx, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *ConversationRepoMock) FindByClient(ctx context.Context, clientID string, limit, offset int) ([]model.Conversation, error) {
	args := m.Called(ctx, clientID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *ConversationRepoMock) List(ctx context.Context, limit, offset int) ([]model.Conversation, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *ConversationRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- DocumentRepo Mock ---

// DocumentRepoMock mocks the DocumentRepo interface
type DocumentRepoMock struct {
	mock.Mock
}

func (m *DocumentRepoMock) CreateVersionAndSetCurrent(ctx context.Context, version model.DocumentVersion, document model.Document) error {
	args := m.Called(ctx, version, document)
	return args.Error(0)
}

func (m *DocumentRepoMock) FindVersionByDigest(ctx context.Context, clientID string, documentType model.DocumentType, digest string) (*model.DocumentVersion, error) {
	args := m.Called(ctx, clientID, documentType, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *DocumentRepoMock) MaxVersionNumber(ctx context.Context, clientID string, documentType model.DocumentType) (int, error) {
	args := m.Called(ctx, clientID, documentType)
	return args.Int(0), args.Error(1)
}

func (m *DocumentRepoMock) ListVersions(ctx context.Context, clientID string, documentType model.DocumentType) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, clientID, documentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}

func (m *DocumentRepoMock) CreateDocument(ctx context.Context, document model.Document) error {
	args := m.Called(ctx, document)
	return args.Error(0)
}

func (m *DocumentRepoMock) UpdateDocument(ctx context.Context, document model.Document) error {
	args := m.Called(ctx, document)
	return args.Error(0)
}

func (m *DocumentRepoMock) UpdateReview(ctx context.Context, documentID string, status model.ReviewStatus, note *string) error {
	args := m.Called(ctx, documentID, status, note)
	return args.Error(0)
}

func (m *DocumentRepoMock) FindDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *DocumentRepoMock) FindDocumentByClientAndType(ctx context.Context, clientID string, documentType model.DocumentType) (*model.Document, error) {
	args := m.Called(ctx, clientID, documentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *DocumentRepoMock) FindDocumentsByClient(ctx context.Context, clientID string) ([]model.Document, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *DocumentRepoMock) FindDocumentByStoragePath(ctx context.Context, storagePath string) (*model.Document, error) {
	args := m.Called(ctx, storagePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *DocumentRepoMock) ListDocuments(ctx context.Context, limit, offset int) ([]model.Document, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *DocumentRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- AuditEventRepo Mock ---

// AuditEventRepoMock mocks the AuditEventRepo interface
type AuditEventRepoMock struct {
	mock.Mock
}

func (m *AuditEventRepoMock) Append(ctx context.Context, event model.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *AuditEventRepoMock) FindByClient(ctx context.Context, clientID string, limit, offset int) ([]model.AuditEvent, error) {
	args := m.Called(ctx, clientID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditEvent), args.Error(1)
}

func (m *AuditEventRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- ExportJobRepo Mock ---

// ExportJobRepoMock mocks the ExportJobRepo interface
type ExportJobRepoMock struct {
	mock.Mock
}

func (m *ExportJobRepoMock) Create(ctx context.Context, job model.ExportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *ExportJobRepoMock) FindByID(ctx context.Context, id string) (*model.ExportJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExportJob), args.Error(1)
}

func (m *ExportJobRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- SyncMappingRepo Mock ---

// SyncMappingRepoMock mocks the SyncMappingRepo interface
type SyncMappingRepoMock struct {
	mock.Mock
}

func (m *SyncMappingRepoMock) Save(ctx context.Context, mapping model.SyncMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *SyncMappingRepoMock) FindBySource(ctx context.Context, sourceID, entityType string) (*model.SyncMapping, error) {
	args := m.Called(ctx, sourceID, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncMapping), args.Error(1)
}

func (m *SyncMappingRepoMock) FindByEntityType(ctx context.Context, entityType string) ([]model.SyncMapping, error) {
	args := m.Called(ctx, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SyncMapping), args.Error(1)
}

func (m *SyncMappingRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
