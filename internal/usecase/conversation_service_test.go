package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	storagemock "gitlab.com/migralia/api/expediente-docs-service/internal/storage/mock"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
)

type conversationServiceFixture struct {
	conversations *storagemock.ConversationRepoMock
	clients       *storagemock.ClientRepoMock
	audits        *storagemock.AuditEventRepoMock
	service       *ConversationService
}

func newConversationServiceFixture(t *testing.T) *conversationServiceFixture {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")

	f := &conversationServiceFixture{
		conversations: new(storagemock.ConversationRepoMock),
		clients:       new(storagemock.ClientRepoMock),
		audits:        new(storagemock.AuditEventRepoMock),
	}
	audit := NewAuditRecorder(f.audits)
	clientService := NewClientService(f.clients, audit)
	f.service = NewConversationService(f.conversations, clientService, nil)
	return f
}

func validMessagePayload() model.MessagePayload {
	return model.MessagePayload{
		PhoneNumber: "34600111222",
		SenderName:  "Maria Lopez",
		MessageID:   "wamid.abc.1",
		Direction:   "inbound",
		MessageType: "text",
		Content:     "hola, buenos dias",
		Timestamp:   1770000000,
	}
}

func TestConversationService_IngestMessage_FirstContactCreatesClient(t *testing.T) {
	f := newConversationServiceFixture(t)
	ctx := context.Background()

	f.clients.On("FindByPhone", ctx, "34600111222").Return(nil, apperrors.ErrNotFound).Once()
	f.clients.On("Save", ctx, mock.MatchedBy(func(c model.Client) bool {
		return c.PhoneNumber == "34600111222" && c.ProfileType == model.CaseProfileOther && c.Status == model.ClientStatusActive
	})).Return(nil)
	f.audits.On("Append", ctx, mock.MatchedBy(func(e model.AuditEvent) bool {
		return e.EventType == model.AuditClientCreated
	})).Return(nil)
	f.conversations.On("InsertIfAbsent", ctx, mock.MatchedBy(func(c model.Conversation) bool {
		return c.DedupeFingerprint != "" && c.Direction == model.DirectionInbound
	})).Return(true, nil)

	conversation, inserted, err := f.service.IngestMessage(ctx, validMessagePayload())

	assert.NoError(t, err)
	assert.True(t, inserted)
	assert.NotNil(t, conversation)
	assert.Equal(t, "wamid.abc.1", conversation.MessageID)
	// The stored time is the gateway's send time from the payload, in UTC.
	assert.Equal(t, time.Unix(1770000000, 0).UTC(), conversation.CreatedAt)
	f.clients.AssertExpectations(t)
	f.conversations.AssertExpectations(t)
}

func TestConversationService_IngestMessage_RedeliveryIsNoOp(t *testing.T) {
	f := newConversationServiceFixture(t)
	ctx := context.Background()

	existing := &model.Conversation{ID: "conv-1", ClientID: "client-1", MessageID: "wamid.abc.1"}
	f.clients.On("FindByPhone", ctx, "34600111222").Return(fixtureClient(), nil)
	f.conversations.On("InsertIfAbsent", ctx, mock.AnythingOfType("model.Conversation")).Return(false, nil)
	f.conversations.On("FindByFingerprint", ctx, mock.AnythingOfType("string")).Return(existing, nil)

	conversation, inserted, err := f.service.IngestMessage(ctx, validMessagePayload())

	assert.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, "conv-1", conversation.ID)
	// A duplicate delivery must not trigger a profile update.
	f.clients.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestConversationService_IngestMessage_UpgradesProfileOnKeyword(t *testing.T) {
	f := newConversationServiceFixture(t)
	ctx := context.Background()

	unclassified := fixtureClient()
	unclassified.ProfileType = model.CaseProfileOther

	payload := validMessagePayload()
	payload.Content = "quiero pedir asilo"

	f.clients.On("FindByPhone", ctx, "34600111222").Return(unclassified, nil)
	f.conversations.On("InsertIfAbsent", ctx, mock.AnythingOfType("model.Conversation")).Return(true, nil)
	f.clients.On("Update", ctx, mock.MatchedBy(func(c model.Client) bool {
		return c.ProfileType == model.CaseProfileAsylum
	})).Return(nil)

	_, inserted, err := f.service.IngestMessage(ctx, payload)

	assert.NoError(t, err)
	assert.True(t, inserted)
	f.clients.AssertExpectations(t)
}

func TestConversationService_IngestMessage_ClassifiedClientIsNotReclassified(t *testing.T) {
	f := newConversationServiceFixture(t)
	ctx := context.Background()

	classified := fixtureClient()
	classified.ProfileType = model.CaseProfileStudent

	payload := validMessagePayload()
	payload.Content = "tengo una situacion irregular"

	f.clients.On("FindByPhone", ctx, "34600111222").Return(classified, nil)
	f.conversations.On("InsertIfAbsent", ctx, mock.AnythingOfType("model.Conversation")).Return(true, nil)

	_, _, err := f.service.IngestMessage(ctx, payload)

	assert.NoError(t, err)
	f.clients.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestConversationService_IngestMessage_InvalidPayload(t *testing.T) {
	f := newConversationServiceFixture(t)
	ctx := context.Background()

	payload := validMessagePayload()
	payload.PhoneNumber = ""

	conversation, inserted, err := f.service.IngestMessage(ctx, payload)

	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.False(t, inserted)
	assert.Nil(t, conversation)
	f.conversations.AssertNotCalled(t, "InsertIfAbsent", mock.Anything, mock.Anything)
}

func TestConversationService_IngestMessage_SameContentDifferentTimestampIsNew(t *testing.T) {
	f := newConversationServiceFixture(t)
	ctx := context.Background()

	f.clients.On("FindByPhone", ctx, "34600111222").Return(fixtureClient(), nil)

	var fingerprints []string
	f.conversations.On("InsertIfAbsent", ctx, mock.AnythingOfType("model.Conversation")).
		Run(func(args mock.Arguments) {
			fingerprints = append(fingerprints, args.Get(1).(model.Conversation).DedupeFingerprint)
		}).Return(true, nil)

	first := validMessagePayload()
	second := validMessagePayload()
	second.Timestamp = first.Timestamp + 60

	_, _, err := f.service.IngestMessage(ctx, first)
	assert.NoError(t, err)
	_, _, err = f.service.IngestMessage(ctx, second)
	assert.NoError(t, err)

	assert.Len(t, fingerprints, 2)
	assert.NotEqual(t, fingerprints[0], fingerprints[1])
}
