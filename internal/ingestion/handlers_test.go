package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/usecase"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

type messageIngestorMock struct{ mock.Mock }

func (m *messageIngestorMock) IngestMessage(ctx context.Context, payload model.MessagePayload) (*model.Conversation, bool, error) {
	args := m.Called(ctx, payload)
	var conversation *model.Conversation
	if v := args.Get(0); v != nil {
		conversation = v.(*model.Conversation)
	}
	return conversation, args.Bool(1), args.Error(2)
}

type clientIntakeMock struct{ mock.Mock }

func (m *clientIntakeMock) GetOrCreateByPhone(ctx context.Context, phoneNumber, name string) (*model.Client, error) {
	args := m.Called(ctx, phoneNumber, name)
	var client *model.Client
	if v := args.Get(0); v != nil {
		client = v.(*model.Client)
	}
	return client, args.Error(1)
}

type documentUploaderMock struct{ mock.Mock }

func (m *documentUploaderMock) Upload(ctx context.Context, input usecase.UploadDocumentInput) (*usecase.UploadResult, error) {
	args := m.Called(ctx, input)
	var result *usecase.UploadResult
	if v := args.Get(0); v != nil {
		result = v.(*usecase.UploadResult)
	}
	return result, args.Error(1)
}

type handlersFixture struct {
	messages  *messageIngestorMock
	clients   *clientIntakeMock
	documents *documentUploaderMock
	handlers  *Handlers
}

func newHandlersFixture(t *testing.T) *handlersFixture {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")

	f := &handlersFixture{
		messages:  new(messageIngestorMock),
		clients:   new(clientIntakeMock),
		documents: new(documentUploaderMock),
	}
	f.handlers = NewHandlers(f.messages, f.clients, f.documents)
	return f
}

func testMetadata(subject string) *MessageMetadata {
	return &MessageMetadata{
		MessageID:      "msg-1",
		MessageSubject: subject,
		NumDelivered:   1,
		Timestamp:      utils.Now(),
	}
}

func TestHandleMessageEvent_Success(t *testing.T) {
	f := newHandlersFixture(t)
	payload := model.NewMessagePayload()

	f.messages.On("IngestMessage", mock.Anything, mock.MatchedBy(func(p model.MessagePayload) bool {
		return p.MessageID == payload.MessageID
	})).Return(&model.Conversation{ID: "conv-1", ClientID: "client-1"}, true, nil)

	err := f.handlers.HandleMessageEvent(context.Background(), testMetadata(SubjectMessages), utils.MustMarshalJSON(payload))

	assert.NoError(t, err)
	f.messages.AssertExpectations(t)
}

func TestHandleMessageEvent_MalformedPayloadIsFatal(t *testing.T) {
	f := newHandlersFixture(t)

	err := f.handlers.HandleMessageEvent(context.Background(), testMetadata(SubjectMessages), []byte("{not json"))

	assert.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	f.messages.AssertNotCalled(t, "IngestMessage", mock.Anything, mock.Anything)
}

func TestHandleMessageEvent_ValidationFailureIsFatal(t *testing.T) {
	f := newHandlersFixture(t)
	payload := model.NewMessagePayload()

	f.messages.On("IngestMessage", mock.Anything, mock.Anything).
		Return(nil, false, apperrors.ErrValidation)

	err := f.handlers.HandleMessageEvent(context.Background(), testMetadata(SubjectMessages), utils.MustMarshalJSON(payload))

	assert.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	assert.False(t, apperrors.IsRetryable(err))
}

func TestHandleMessageEvent_DatabaseFailureIsRetryable(t *testing.T) {
	f := newHandlersFixture(t)
	payload := model.NewMessagePayload()

	f.messages.On("IngestMessage", mock.Anything, mock.Anything).
		Return(nil, false, apperrors.ErrDatabase)

	err := f.handlers.HandleMessageEvent(context.Background(), testMetadata(SubjectMessages), utils.MustMarshalJSON(payload))

	assert.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestHandleMediaEvent_Success(t *testing.T) {
	f := newHandlersFixture(t)
	payload := model.NewMediaPayload(&model.MediaPayload{DocumentType: string(model.DocumentTypeTasa)})

	client := &model.Client{ID: "client-1", PhoneNumber: payload.PhoneNumber}
	f.clients.On("GetOrCreateByPhone", mock.Anything, payload.PhoneNumber, "").Return(client, nil)
	f.documents.On("Upload", mock.Anything, mock.MatchedBy(func(input usecase.UploadDocumentInput) bool {
		return input.ClientID == client.ID &&
			input.DocumentType == model.DocumentTypeTasa &&
			input.Filename == payload.Filename &&
			input.Actor == webhookActor
	})).Return(&usecase.UploadResult{Duplicate: false}, nil)

	err := f.handlers.HandleMediaEvent(context.Background(), testMetadata(SubjectMedia), utils.MustMarshalJSON(payload))

	assert.NoError(t, err)
	f.clients.AssertExpectations(t)
	f.documents.AssertExpectations(t)
}

func TestHandleMediaEvent_UnknownDocumentTypeIsFatal(t *testing.T) {
	f := newHandlersFixture(t)
	payload := model.NewMediaPayload(&model.MediaPayload{DocumentType: "VISA"})

	err := f.handlers.HandleMediaEvent(context.Background(), testMetadata(SubjectMedia), utils.MustMarshalJSON(payload))

	assert.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	f.clients.AssertNotCalled(t, "GetOrCreateByPhone", mock.Anything, mock.Anything, mock.Anything)
	f.documents.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestHandleMediaEvent_DuplicateUploadIsSuccess(t *testing.T) {
	f := newHandlersFixture(t)
	payload := model.NewMediaPayload()

	client := &model.Client{ID: "client-1", PhoneNumber: payload.PhoneNumber}
	f.clients.On("GetOrCreateByPhone", mock.Anything, payload.PhoneNumber, "").Return(client, nil)
	f.documents.On("Upload", mock.Anything, mock.Anything).
		Return(&usecase.UploadResult{Duplicate: true}, nil)

	err := f.handlers.HandleMediaEvent(context.Background(), testMetadata(SubjectMedia), utils.MustMarshalJSON(payload))

	// Duplicate content is an idempotent no-op, the event must be acked.
	assert.NoError(t, err)
}

func TestHandleMediaEvent_ObjectStoreFailureIsRetryable(t *testing.T) {
	f := newHandlersFixture(t)
	payload := model.NewMediaPayload()

	client := &model.Client{ID: "client-1", PhoneNumber: payload.PhoneNumber}
	f.clients.On("GetOrCreateByPhone", mock.Anything, payload.PhoneNumber, "").Return(client, nil)
	f.documents.On("Upload", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrObjectStore)

	err := f.handlers.HandleMediaEvent(context.Background(), testMetadata(SubjectMedia), utils.MustMarshalJSON(payload))

	assert.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
}
