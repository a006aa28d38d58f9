package model

import (
	"time"

	"gorm.io/datatypes"
)

// ExportJob is a generated expediente bundle. Once ExpiresAt has passed the
// artifact must not be served, even if the object is still in the bucket.
type ExportJob struct {
	ID           string         `json:"id" gorm:"column:id;primaryKey"`
	ClientID     string         `json:"client_id" gorm:"column:client_id;index"`
	StoragePath  string         `json:"storage_path" gorm:"column:storage_path;uniqueIndex:idx_export_jobs_storage_path"`
	Filename     string         `json:"filename" gorm:"column:filename"`
	Status       ExportStatus   `json:"status" gorm:"column:status"`
	AcceptedOnly bool           `json:"accepted_only" gorm:"column:accepted_only"`
	FileSize     int64          `json:"file_size,omitempty" gorm:"column:file_size"`
	ExpiresAt    time.Time      `json:"expires_at" gorm:"column:expires_at"`
	RequestedBy  string         `json:"requested_by,omitempty" gorm:"column:requested_by"`
	Metadata     datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb;column:metadata"`
	CreatedAt    time.Time      `json:"created_at,omitempty" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (ExportJob) TableName() string {
	return "export_jobs"
}

// Expired reports whether the job is past its expiration at the given time.
func (j *ExportJob) Expired(now time.Time) bool {
	return !now.Before(j.ExpiresAt)
}
