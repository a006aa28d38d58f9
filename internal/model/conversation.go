package model

import (
	"time"

	"gorm.io/datatypes"
)

// Conversation is a single inbound or outbound message tied to a client.
// The dedupe fingerprint is unique: redelivered webhook events collapse onto
// the existing row instead of creating a duplicate.
type Conversation struct {
	ID                string           `json:"id" gorm:"column:id;primaryKey"`
	ClientID          string           `json:"client_id" gorm:"column:client_id;index"`
	MessageID         string           `json:"message_id,omitempty" gorm:"column:message_id;index"`
	Direction         MessageDirection `json:"direction" gorm:"column:direction"`
	MessageType       string           `json:"message_type,omitempty" gorm:"column:message_type"`
	Content           string           `json:"content,omitempty" gorm:"column:content"`
	DedupeFingerprint string           `json:"dedupe_fingerprint" gorm:"column:dedupe_fingerprint;uniqueIndex:idx_conversations_fingerprint"`
	Metadata          datatypes.JSON   `json:"metadata,omitempty" gorm:"type:jsonb;column:metadata"`
	CreatedAt         time.Time        `json:"created_at,omitempty" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (Conversation) TableName() string {
	return "conversations"
}
