package model

import "fmt"

// DocumentType is the closed set of document types a case file tracks.
type DocumentType string

const (
	DocumentTypeTasa        DocumentType = "TASA"
	DocumentTypePassportNIE DocumentType = "PASSPORT_NIE"
)

// RequiredDocumentTypes lists the types an expediente export must contain.
func RequiredDocumentTypes() []DocumentType {
	return []DocumentType{DocumentTypeTasa, DocumentTypePassportNIE}
}

// Valid reports whether the document type is part of the closed set.
func (d DocumentType) Valid() bool {
	switch d {
	case DocumentTypeTasa, DocumentTypePassportNIE:
		return true
	}
	return false
}

// ParseDocumentType validates a raw string against the closed set.
func ParseDocumentType(raw string) (DocumentType, error) {
	d := DocumentType(raw)
	if !d.Valid() {
		return "", fmt.Errorf("unknown document type %q", raw)
	}
	return d, nil
}

// ReviewStatus is the review state of the current document of a type.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusAccepted ReviewStatus = "accepted"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Valid reports whether the review status is part of the closed set.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusAccepted, ReviewStatusRejected:
		return true
	}
	return false
}

// ParseReviewStatus validates a raw string against the closed set.
func ParseReviewStatus(raw string) (ReviewStatus, error) {
	s := ReviewStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown review status %q", raw)
	}
	return s, nil
}

// CaseProfile is the immigration case category of a client.
type CaseProfile string

const (
	CaseProfileAsylum    CaseProfile = "ASYLUM"
	CaseProfileArraigo   CaseProfile = "ARRAIGO"
	CaseProfileStudent   CaseProfile = "STUDENT"
	CaseProfileIrregular CaseProfile = "IRREGULAR"
	CaseProfileOther     CaseProfile = "OTHER"
)

// Valid reports whether the case profile is part of the closed set.
func (p CaseProfile) Valid() bool {
	switch p {
	case CaseProfileAsylum, CaseProfileArraigo, CaseProfileStudent, CaseProfileIrregular, CaseProfileOther:
		return true
	}
	return false
}

// ClientStatus is the lifecycle status of a client. Clients are archived,
// never hard-deleted.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusArchived ClientStatus = "archived"
)

// Valid reports whether the client status is part of the closed set.
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientStatusActive, ClientStatusInactive, ClientStatusArchived:
		return true
	}
	return false
}

// MessageDirection indicates whether a conversation message came from the
// client or was sent to them.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// Valid reports whether the direction is part of the closed set.
func (d MessageDirection) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// ExportStatus is the terminal status of an export job. Assembly is
// synchronous, so there is no pending state: a job row only exists once the
// archive is ready.
type ExportStatus string

const (
	ExportStatusReady ExportStatus = "ready"
)
