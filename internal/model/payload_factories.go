package model

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// --- Webhook Payload Factories ---

// NewMessagePayload creates a MessagePayload with default fake data.
func NewMessagePayload(overrideDefaults ...*MessagePayload) *MessagePayload {
	base := &MessagePayload{
		PhoneNumber: "34" + gofakeit.DigitN(9),
		SenderName:  gofakeit.Name(),
		MessageID:   "wamid." + gofakeit.LetterN(20),
		Direction:   string(DirectionInbound),
		MessageType: "text",
		Content:     gofakeit.Sentence(8),
		Timestamp:   utils.Now().Add(-time.Duration(gofakeit.Number(1, 60)) * time.Minute).Unix(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.PhoneNumber != "" {
			base.PhoneNumber = ovr.PhoneNumber
		}
		if ovr.SenderName != "" {
			base.SenderName = ovr.SenderName
		}
		if ovr.MessageID != "" {
			base.MessageID = ovr.MessageID
		}
		if ovr.Direction != "" {
			base.Direction = ovr.Direction
		}
		if ovr.MessageType != "" {
			base.MessageType = ovr.MessageType
		}
		if ovr.Content != "" {
			base.Content = ovr.Content
		}
		if ovr.Timestamp != 0 {
			base.Timestamp = ovr.Timestamp
		}
	}
	return base
}

// NewMediaPayload creates a MediaPayload with default fake data.
func NewMediaPayload(overrideDefaults ...*MediaPayload) *MediaPayload {
	base := &MediaPayload{
		PhoneNumber:  "34" + gofakeit.DigitN(9),
		MessageID:    "wamid." + gofakeit.LetterN(20),
		DocumentType: string(DocumentTypeTasa),
		Filename:     gofakeit.Word() + ".pdf",
		MimeType:     "application/pdf",
		Data:         []byte(gofakeit.Sentence(12)),
		Timestamp:    utils.Now().Add(-time.Duration(gofakeit.Number(1, 60)) * time.Minute).Unix(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.PhoneNumber != "" {
			base.PhoneNumber = ovr.PhoneNumber
		}
		if ovr.MessageID != "" {
			base.MessageID = ovr.MessageID
		}
		if ovr.DocumentType != "" {
			base.DocumentType = ovr.DocumentType
		}
		if ovr.Filename != "" {
			base.Filename = ovr.Filename
		}
		if ovr.MimeType != "" {
			base.MimeType = ovr.MimeType
		}
		if ovr.Data != nil {
			base.Data = ovr.Data
		}
		if ovr.Timestamp != 0 {
			base.Timestamp = ovr.Timestamp
		}
	}
	return base
}
