package ingestion

import (
	"context"

	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/usecase"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

// webhookActor is recorded on audit entries for writes driven by gateway
// events rather than a human case worker.
const webhookActor = "webhook"

// MessageIngestor applies a conversation message event.
type MessageIngestor interface {
	IngestMessage(ctx context.Context, payload model.MessagePayload) (*model.Conversation, bool, error)
}

// ClientIntake resolves the client a media event belongs to.
type ClientIntake interface {
	GetOrCreateByPhone(ctx context.Context, phoneNumber, name string) (*model.Client, error)
}

// DocumentUploader stores a document version from a media event.
type DocumentUploader interface {
	Upload(ctx context.Context, input usecase.UploadDocumentInput) (*usecase.UploadResult, error)
}

// Handlers binds webhook subjects to the document services.
type Handlers struct {
	messages  MessageIngestor
	clients   ClientIntake
	documents DocumentUploader
}

// NewHandlers creates the webhook event handlers.
func NewHandlers(messages MessageIngestor, clients ClientIntake, documents DocumentUploader) *Handlers {
	return &Handlers{
		messages:  messages,
		clients:   clients,
		documents: documents,
	}
}

// RegisterAll wires every webhook subject into the router.
func (h *Handlers) RegisterAll(router RouterInterface) {
	router.Register(SubjectMessages, h.HandleMessageEvent)
	router.Register(SubjectMedia, h.HandleMediaEvent)
}

// HandleMessageEvent processes a `v1.webhook.messages` event. Redeliveries
// land on the dedupe fingerprint and are acknowledged as duplicates.
func (h *Handlers) HandleMessageEvent(ctx context.Context, metadata *MessageMetadata, rawEvent []byte) error {
	log := logger.FromContext(ctx)

	var payload model.MessagePayload
	if err := utils.UnmarshalJSON(rawEvent, &payload); err != nil {
		return apperrors.NewFatal(err, "failed to unmarshal message payload")
	}

	conversation, inserted, err := h.messages.IngestMessage(ctx, payload)
	if err != nil {
		return classifyProcessingError(err, "failed to ingest message")
	}

	log.Info("Message event applied",
		zap.String("conversation_id", conversation.ID),
		zap.String("client_id", conversation.ClientID),
		zap.Bool("duplicate", !inserted),
	)
	return nil
}

// HandleMediaEvent processes a `v1.webhook.media` event: resolves the
// client by phone, then stores the bytes as a new document version.
func (h *Handlers) HandleMediaEvent(ctx context.Context, metadata *MessageMetadata, rawEvent []byte) error {
	log := logger.FromContext(ctx)

	var payload model.MediaPayload
	if err := utils.UnmarshalJSON(rawEvent, &payload); err != nil {
		return apperrors.NewFatal(err, "failed to unmarshal media payload")
	}

	documentType, err := model.ParseDocumentType(payload.DocumentType)
	if err != nil {
		return apperrors.NewFatal(err, "media event carries unknown document type")
	}

	client, err := h.clients.GetOrCreateByPhone(ctx, payload.PhoneNumber, "")
	if err != nil {
		return classifyProcessingError(err, "failed to resolve client for media event")
	}

	result, err := h.documents.Upload(ctx, usecase.UploadDocumentInput{
		ClientID:     client.ID,
		DocumentType: documentType,
		Filename:     payload.Filename,
		MimeType:     payload.MimeType,
		Data:         payload.Data,
		Actor:        webhookActor,
	})
	if err != nil {
		return classifyProcessingError(err, "failed to store media document")
	}

	log.Info("Media event applied",
		zap.String("client_id", client.ID),
		zap.String("document_type", string(documentType)),
		zap.Bool("duplicate", result.Duplicate),
	)
	return nil
}

// classifyProcessingError splits service errors into terminal and retryable
// for the ack decision. Validation problems never heal on redelivery; the
// rest might.
func classifyProcessingError(err error, message string) error {
	switch {
	case apperrors.IsValidationError(err),
		apperrors.IsBadRequestError(err),
		apperrors.IsNotFoundError(err):
		return apperrors.NewFatal(err, "%s", message)
	default:
		return apperrors.NewRetryable(err, "%s", message)
	}
}
