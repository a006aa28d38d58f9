package model

// MessagePayload is the body of a `v1.webhook.messages` event published by
// the webhook gateway. Redeliveries are expected; the dedupe fingerprint
// derived from these fields makes reprocessing a no-op.
type MessagePayload struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	SenderName  string `json:"sender_name,omitempty"`
	MessageID   string `json:"message_id" validate:"required"`
	Direction   string `json:"direction" validate:"required,oneof=inbound outbound"`
	MessageType string `json:"message_type" validate:"required"`
	Content     string `json:"content,omitempty"`
	Timestamp   int64  `json:"timestamp" validate:"required,gt=0"`
}

// MediaPayload is the body of a `v1.webhook.media` event. The gateway has
// already fetched the media bytes from the provider; Data is base64 on the
// wire and decoded by encoding/json.
type MediaPayload struct {
	PhoneNumber  string `json:"phone_number" validate:"required"`
	MessageID    string `json:"message_id" validate:"required"`
	DocumentType string `json:"document_type" validate:"required,oneof=TASA PASSPORT_NIE"`
	Filename     string `json:"filename" validate:"required"`
	MimeType     string `json:"mime_type" validate:"required"`
	Data         []byte `json:"data" validate:"required"`
	Timestamp    int64  `json:"timestamp" validate:"required,gt=0"`
}
