package model

import (
	"time"

	"gorm.io/datatypes"
)

// Document is the current file of a given type for a client. At most one row
// exists per (client_id, document_type): a new upload replaces this pointer,
// while the superseded content stays reachable through DocumentVersion.
type Document struct {
	ID               string         `json:"id" gorm:"column:id;primaryKey"`
	ClientID         string         `json:"client_id" gorm:"column:client_id;uniqueIndex:idx_documents_client_type,priority:1"`
	ConversationID   *string        `json:"conversation_id,omitempty" gorm:"column:conversation_id"`
	DocumentType     DocumentType   `json:"document_type" gorm:"column:document_type;uniqueIndex:idx_documents_client_type,priority:2"`
	StoragePath      string         `json:"storage_path" gorm:"column:storage_path;uniqueIndex:idx_documents_storage_path"`
	OriginalFilename string         `json:"original_filename,omitempty" gorm:"column:original_filename"`
	MimeType         string         `json:"mime_type,omitempty" gorm:"column:mime_type"`
	FileSize         int64          `json:"file_size,omitempty" gorm:"column:file_size"`
	ProfileType      CaseProfile    `json:"profile_type,omitempty" gorm:"column:profile_type"`
	ReviewStatus     ReviewStatus   `json:"review_status" gorm:"column:review_status"`
	ReviewNote       *string        `json:"review_note,omitempty" gorm:"column:review_note"`
	Metadata         datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb;column:metadata"`
	UploadedAt       time.Time      `json:"uploaded_at,omitempty" gorm:"column:uploaded_at;autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at,omitempty" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (Document) TableName() string {
	return "documents"
}

// DocumentReplaceFields returns the columns rewritten when a new upload
// replaces the current pointer. Review state always resets to pending:
// acceptance is per-content, not per-slot.
func DocumentReplaceFields() []string {
	return []string{
		"conversation_id", "storage_path", "original_filename", "mime_type",
		"file_size", "profile_type", "review_status", "review_note", "metadata",
		"uploaded_at", "updated_at",
	}
}

// DocumentVersion is an immutable history entry for one upload. Version
// numbers are dense per (client_id, document_type) starting at 1, and the
// content digest is unique within that pair, so re-uploading byte-identical
// content never creates a new version.
type DocumentVersion struct {
	ID               string         `json:"id" gorm:"column:id;primaryKey"`
	ClientID         string         `json:"client_id" gorm:"column:client_id;uniqueIndex:idx_versions_client_type_number,priority:1;uniqueIndex:idx_versions_client_type_digest,priority:1"`
	DocumentType     DocumentType   `json:"document_type" gorm:"column:document_type;uniqueIndex:idx_versions_client_type_number,priority:2;uniqueIndex:idx_versions_client_type_digest,priority:2"`
	DocumentID       *string        `json:"document_id,omitempty" gorm:"column:document_id"`
	VersionNumber    int            `json:"version_number" gorm:"column:version_number;uniqueIndex:idx_versions_client_type_number,priority:3"`
	ContentDigest    string         `json:"content_digest" gorm:"column:content_digest;uniqueIndex:idx_versions_client_type_digest,priority:3"`
	StoragePath      string         `json:"storage_path" gorm:"column:storage_path"`
	OriginalFilename string         `json:"original_filename,omitempty" gorm:"column:original_filename"`
	MimeType         string         `json:"mime_type,omitempty" gorm:"column:mime_type"`
	FileSize         int64          `json:"file_size,omitempty" gorm:"column:file_size"`
	Metadata         datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb;column:metadata"`
	CreatedAt        time.Time      `json:"created_at,omitempty" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (DocumentVersion) TableName() string {
	return "document_versions"
}
