package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/classifier"
	"gitlab.com/migralia/api/expediente-docs-service/internal/digest"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/storage"
	"gitlab.com/migralia/api/expediente-docs-service/internal/validator"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

// ConversationService ingests webhook message events into the conversation
// log. Every path through IngestMessage is idempotent: the dedupe fingerprint
// collapses redeliveries onto the first write.
type ConversationService struct {
	conversations storage.ConversationRepo
	clientService *ClientService
	classify      classifier.ClassifyFunc
}

// NewConversationService creates a new conversation service.
func NewConversationService(conversations storage.ConversationRepo, clientService *ClientService, classify classifier.ClassifyFunc) *ConversationService {
	if classify == nil {
		classify = classifier.Classify
	}
	return &ConversationService{
		conversations: conversations,
		clientService: clientService,
		classify:      classify,
	}
}

// IngestMessage records one webhook message event. It returns the stored
// conversation and whether this delivery actually wrote a row.
func (s *ConversationService) IngestMessage(ctx context.Context, payload model.MessagePayload) (*model.Conversation, bool, error) {
	if err := validator.Validate(&payload); err != nil {
		return nil, false, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	client, err := s.clientService.GetOrCreateByPhone(ctx, payload.PhoneNumber, payload.SenderName)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve client for message %s: %w", payload.MessageID, err)
	}

	fingerprint := digest.MessageFingerprint(client.ID, payload.Direction, payload.Timestamp, payload.MessageType, payload.Content)

	// The row keeps the gateway's send time, not the processing time:
	// redeliveries arrive late but describe the same moment.
	conversation := model.Conversation{
		ID:                uuid.NewString(),
		ClientID:          client.ID,
		MessageID:         payload.MessageID,
		Direction:         model.MessageDirection(payload.Direction),
		MessageType:       payload.MessageType,
		Content:           payload.Content,
		DedupeFingerprint: fingerprint,
		CreatedAt:         utils.UnixToTime(payload.Timestamp),
	}

	inserted, err := s.conversations.InsertIfAbsent(ctx, conversation)
	if err != nil {
		return nil, false, err
	}
	if !inserted {
		logger.FromContext(ctx).Debug("Skipping duplicate message delivery",
			zap.String("message_id", payload.MessageID),
			zap.String("fingerprint", fingerprint))
		existing, findErr := s.conversations.FindByFingerprint(ctx, fingerprint)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}

	// First sight of this message: give unclassified clients a chance to land
	// on a concrete case profile.
	if conversation.Direction == model.DirectionInbound && client.ProfileType == model.CaseProfileOther {
		if profile := s.classify(payload.Content); profile != model.CaseProfileOther {
			if upgradeErr := s.clientService.UpgradeProfile(ctx, client, profile); upgradeErr != nil {
				logger.FromContext(ctx).Warn("Failed to upgrade client profile",
					zap.String("client_id", client.ID), zap.Error(upgradeErr))
			}
		}
	}

	return &conversation, true, nil
}

// History returns a page of a client's conversation log, oldest first.
func (s *ConversationService) History(ctx context.Context, clientID string, limit, offset int) ([]model.Conversation, error) {
	return s.conversations.FindByClient(ctx, clientID, limit, offset)
}
