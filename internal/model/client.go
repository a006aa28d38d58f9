package model

import (
	"time"

	"gorm.io/datatypes"
)

// Client represents a case subject. The phone number is the natural key: it
// uniquely identifies a client in every store the record is replicated to.
type Client struct {
	ID            string         `json:"id" gorm:"column:id;primaryKey"`
	PhoneNumber   string         `json:"phone_number" gorm:"column:phone_number;uniqueIndex:idx_clients_phone"`
	Name          string         `json:"name,omitempty" gorm:"column:name"`
	PassportOrNIE string         `json:"passport_or_nie,omitempty" gorm:"column:passport_or_nie"`
	ProfileType   CaseProfile    `json:"profile_type" gorm:"column:profile_type"`
	Status        ClientStatus   `json:"status" gorm:"column:status"`
	Metadata      datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb;column:metadata"`
	CreatedAt     time.Time      `json:"created_at,omitempty" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `json:"updated_at,omitempty" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (Client) TableName() string {
	return "clients"
}

// ClientUpdatableFields returns the mutable columns replayed on sync updates.
// Identity columns (id, phone_number) and created_at are never touched.
func ClientUpdatableFields() []string {
	return []string{"name", "passport_or_nie", "profile_type", "status", "metadata", "updated_at"}
}
