package storage

import (
	"context"

	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
)

// ClientRepoAdapter adapts the PostgresRepo to the ClientRepo interface
type ClientRepoAdapter struct {
	postgres *PostgresRepo
}

// NewClientRepoAdapter creates a new client repository adapter
func NewClientRepoAdapter(postgres *PostgresRepo) ClientRepo {
	return &ClientRepoAdapter{postgres: postgres}
}

func (a *ClientRepoAdapter) Save(ctx context.Context, client model.Client) error {
	return a.postgres.SaveClient(ctx, client)
}

func (a *ClientRepoAdapter) Update(ctx context.Context, client model.Client) error {
	return a.postgres.UpdateClient(ctx, client)
}

func (a *ClientRepoAdapter) Upsert(ctx context.Context, client model.Client) error {
	return a.postgres.UpsertClient(ctx, client)
}

func (a *ClientRepoAdapter) FindByID(ctx context.Context, id string) (*model.Client, error) {
	return a.postgres.FindClientByID(ctx, id)
}

func (a *ClientRepoAdapter) FindByPhone(ctx context.Context, phoneNumber string) (*model.Client, error) {
	return a.postgres.FindClientByPhone(ctx, phoneNumber)
}

func (a *ClientRepoAdapter) List(ctx context.Context, limit, offset int) ([]model.Client, error) {
	return a.postgres.ListClients(ctx, limit, offset)
}

func (a *ClientRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// ConversationRepoAdapter adapts the PostgresRepo to the ConversationRepo interface
type ConversationRepoAdapter struct {
	postgres *PostgresRepo
}

// NewConversationRepoAdapter creates a new conversation repository adapter
func NewConversationRepoAdapter(postgres *PostgresRepo) ConversationRepo {
	return &ConversationRepoAdapter{postgres: postgres}
}

func (a *ConversationRepoAdapter) InsertIfAbsent(ctx context.Context, conversation model.Conversation) (bool, error) {
	return a.postgres.InsertConversationIfAbsent(ctx, conversation)
}

func (a *ConversationRepoAdapter) FindByFingerprint(ctx context.Context, fingerprint string) (*model.Conversation, error) {
	return a.postgres.FindConversationByFingerprint(ctx, fingerprint)
}

func (a *ConversationRepoAdapter) FindByClient(ctx context.Context, clientID string, limit, offset int) ([]model.Conversation, error) {
	return a.postgres.FindConversationsByClient(ctx, clientID, limit, offset)
}

func (a *ConversationRepoAdapter) List(ctx context.Context, limit, offset int) ([]model.Conversation, error) {
	return a.postgres.ListConversations(ctx, limit, offset)
}

func (a *ConversationRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// DocumentRepoAdapter adapts the PostgresRepo to the DocumentRepo interface
type DocumentRepoAdapter struct {
	postgres *PostgresRepo
}

// NewDocumentRepoAdapter creates a new document repository adapter
func NewDocumentRepoAdapter(postgres *PostgresRepo) DocumentRepo {
	return &DocumentRepoAdapter{postgres: postgres}
}

func (a *DocumentRepoAdapter) CreateVersionAndSetCurrent(ctx context.Context, version model.DocumentVersion, document model.Document) error {
	return a.postgres.CreateVersionAndSetCurrent(ctx, version, document)
}

func (a *DocumentRepoAdapter) FindVersionByDigest(ctx context.Context, clientID string, documentType model.DocumentType, digest string) (*model.DocumentVersion, error) {
	return a.postgres.FindVersionByDigest(ctx, clientID, documentType, digest)
}

func (a *DocumentRepoAdapter) MaxVersionNumber(ctx context.Context, clientID string, documentType model.DocumentType) (int, error) {
	return a.postgres.MaxVersionNumber(ctx, clientID, documentType)
}

func (a *DocumentRepoAdapter) ListVersions(ctx context.Context, clientID string, documentType model.DocumentType) ([]model.DocumentVersion, error) {
	return a.postgres.ListVersions(ctx, clientID, documentType)
}

func (a *DocumentRepoAdapter) CreateDocument(ctx context.Context, document model.Document) error {
	return a.postgres.CreateDocument(ctx, document)
}

func (a *DocumentRepoAdapter) UpdateDocument(ctx context.Context, document model.Document) error {
	return a.postgres.UpdateDocument(ctx, document)
}

func (a *DocumentRepoAdapter) UpdateReview(ctx context.Context, documentID string, status model.ReviewStatus, note *string) error {
	return a.postgres.UpdateReview(ctx, documentID, status, note)
}

func (a *DocumentRepoAdapter) FindDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	return a.postgres.FindDocumentByID(ctx, id)
}

func (a *DocumentRepoAdapter) FindDocumentByClientAndType(ctx context.Context, clientID string, documentType model.DocumentType) (*model.Document, error) {
	return a.postgres.FindDocumentByClientAndType(ctx, clientID, documentType)
}

func (a *DocumentRepoAdapter) FindDocumentsByClient(ctx context.Context, clientID string) ([]model.Document, error) {
	return a.postgres.FindDocumentsByClient(ctx, clientID)
}

func (a *DocumentRepoAdapter) FindDocumentByStoragePath(ctx context.Context, storagePath string) (*model.Document, error) {
	return a.postgres.FindDocumentByStoragePath(ctx, storagePath)
}

func (a *DocumentRepoAdapter) ListDocuments(ctx context.Context, limit, offset int) ([]model.Document, error) {
	return a.postgres.ListDocuments(ctx, limit, offset)
}

func (a *DocumentRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// AuditEventRepoAdapter adapts the PostgresRepo to the AuditEventRepo interface
type AuditEventRepoAdapter struct {
	postgres *PostgresRepo
}

// NewAuditEventRepoAdapter creates a new audit event repository adapter
func NewAuditEventRepoAdapter(postgres *PostgresRepo) AuditEventRepo {
	return &AuditEventRepoAdapter{postgres: postgres}
}

func (a *AuditEventRepoAdapter) Append(ctx context.Context, event model.AuditEvent) error {
	return a.postgres.AppendAuditEvent(ctx, event)
}

func (a *AuditEventRepoAdapter) FindByClient(ctx context.Context, clientID string, limit, offset int) ([]model.AuditEvent, error) {
	return a.postgres.FindAuditEventsByClient(ctx, clientID, limit, offset)
}

func (a *AuditEventRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// ExportJobRepoAdapter adapts the PostgresRepo to the ExportJobRepo interface
type ExportJobRepoAdapter struct {
	postgres *PostgresRepo
}

// NewExportJobRepoAdapter creates a new export job repository adapter
func NewExportJobRepoAdapter(postgres *PostgresRepo) ExportJobRepo {
	return &ExportJobRepoAdapter{postgres: postgres}
}

func (a *ExportJobRepoAdapter) Create(ctx context.Context, job model.ExportJob) error {
	return a.postgres.CreateExportJob(ctx, job)
}

func (a *ExportJobRepoAdapter) FindByID(ctx context.Context, id string) (*model.ExportJob, error) {
	return a.postgres.FindExportJobByID(ctx, id)
}

func (a *ExportJobRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// SyncMappingRepoAdapter adapts the PostgresRepo to the SyncMappingRepo interface
type SyncMappingRepoAdapter struct {
	postgres *PostgresRepo
}

// NewSyncMappingRepoAdapter creates a new sync mapping repository adapter
func NewSyncMappingRepoAdapter(postgres *PostgresRepo) SyncMappingRepo {
	return &SyncMappingRepoAdapter{postgres: postgres}
}

func (a *SyncMappingRepoAdapter) Save(ctx context.Context, mapping model.SyncMapping) error {
	return a.postgres.SaveSyncMapping(ctx, mapping)
}

func (a *SyncMappingRepoAdapter) FindBySource(ctx context.Context, sourceID, entityType string) (*model.SyncMapping, error) {
	return a.postgres.FindSyncMappingBySource(ctx, sourceID, entityType)
}

func (a *SyncMappingRepoAdapter) FindByEntityType(ctx context.Context, entityType string) ([]model.SyncMapping, error) {
	return a.postgres.FindSyncMappingsByEntityType(ctx, entityType)
}

func (a *SyncMappingRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}
