package model

import "time"

// Entity types recorded in sync mappings.
const (
	SyncEntityClient       = "client"
	SyncEntityConversation = "conversation"
	SyncEntityDocument     = "document"
	SyncEntityFile         = "file"
)

// SyncMapping correlates a source-store identifier with its target-store
// counterpart so later sync stages can translate references. Rows are
// write-once; (source_id, entity_type) is unique.
type SyncMapping struct {
	SourceID   string    `json:"source_id" gorm:"column:source_id;uniqueIndex:idx_sync_mappings_source_entity,priority:1"`
	TargetID   string    `json:"target_id" gorm:"column:target_id"`
	EntityType string    `json:"entity_type" gorm:"column:entity_type;uniqueIndex:idx_sync_mappings_source_entity,priority:2"`
	SyncedAt   time.Time `json:"synced_at" gorm:"column:synced_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (SyncMapping) TableName() string {
	return "sync_mappings"
}
