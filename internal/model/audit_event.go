package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit event types emitted by the services.
const (
	AuditDocumentUploaded       = "document-uploaded"
	AuditDuplicateUploadIgnored = "duplicate-upload-ignored"
	AuditDocumentReviewed       = "document-reviewed"
	AuditExportCreated          = "export-created"
	AuditClientCreated          = "client-created"
)

// AuditEvent is an append-only trace of a state-changing action. Rows are
// never updated or deleted.
type AuditEvent struct {
	ID        string         `json:"id" gorm:"column:id;primaryKey"`
	ClientID  string         `json:"client_id" gorm:"column:client_id;index"`
	EventType string         `json:"event_type" gorm:"column:event_type;index"`
	Actor     string         `json:"actor,omitempty" gorm:"column:actor"`
	Details   datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb;column:details"`
	CreatedAt time.Time      `json:"created_at,omitempty" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (AuditEvent) TableName() string {
	return "audit_events"
}
