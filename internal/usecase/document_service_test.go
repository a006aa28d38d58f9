package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	blobmock "gitlab.com/migralia/api/expediente-docs-service/internal/blob/mock"
	"gitlab.com/migralia/api/expediente-docs-service/internal/digest"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	storagemock "gitlab.com/migralia/api/expediente-docs-service/internal/storage/mock"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
)

type documentServiceFixture struct {
	documents *storagemock.DocumentRepoMock
	clients   *storagemock.ClientRepoMock
	audits    *storagemock.AuditEventRepoMock
	store     *blobmock.ObjectStoreMock
	service   *DocumentService
}

func newDocumentServiceFixture(t *testing.T) *documentServiceFixture {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")

	f := &documentServiceFixture{
		documents: new(storagemock.DocumentRepoMock),
		clients:   new(storagemock.ClientRepoMock),
		audits:    new(storagemock.AuditEventRepoMock),
		store:     new(blobmock.ObjectStoreMock),
	}
	audit := NewAuditRecorder(f.audits)
	clientService := NewClientService(f.clients, audit)
	f.service = NewDocumentService(f.documents, clientService, f.store, audit)
	return f
}

func fixtureClient() *model.Client {
	return &model.Client{
		ID:            "client-1",
		PhoneNumber:   "34600111222",
		Name:          "Maria Lopez",
		PassportOrNIE: "X1234567L",
		ProfileType:   model.CaseProfileAsylum,
		Status:        model.ClientStatusActive,
	}
}

func TestDocumentService_Upload_NewVersion(t *testing.T) {
	f := newDocumentServiceFixture(t)
	ctx := context.Background()
	data := []byte("tasa form content")
	dig := digest.Sum(data)

	f.clients.On("FindByID", ctx, "client-1").Return(fixtureClient(), nil)
	f.documents.On("FindVersionByDigest", ctx, "client-1", model.DocumentTypeTasa, dig).
		Return(nil, apperrors.ErrNotFound)
	f.store.On("Upload", ctx, mock.AnythingOfType("string"), data, "application/pdf").Return(nil)
	f.documents.On("MaxVersionNumber", ctx, "client-1", model.DocumentTypeTasa).Return(2, nil)
	f.documents.On("CreateVersionAndSetCurrent", ctx,
		mock.MatchedBy(func(v model.DocumentVersion) bool {
			return v.VersionNumber == 3 && v.ContentDigest == dig
		}),
		mock.MatchedBy(func(d model.Document) bool {
			return d.ReviewStatus == model.ReviewStatusPending && d.ClientID == "client-1"
		}),
	).Return(nil)
	current := &model.Document{ID: "doc-1", ClientID: "client-1", DocumentType: model.DocumentTypeTasa, ReviewStatus: model.ReviewStatusPending}
	f.documents.On("FindDocumentByClientAndType", ctx, "client-1", model.DocumentTypeTasa).Return(current, nil)
	f.audits.On("Append", ctx, mock.AnythingOfType("model.AuditEvent")).Return(nil)

	result, err := f.service.Upload(ctx, UploadDocumentInput{
		ClientID:     "client-1",
		DocumentType: model.DocumentTypeTasa,
		Filename:     "tasa.pdf",
		MimeType:     "application/pdf",
		Data:         data,
		Actor:        "case-worker",
	})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.False(t, result.Duplicate)
	assert.Equal(t, 3, result.Version.VersionNumber)
	assert.Equal(t, model.ReviewStatusPending, result.Document.ReviewStatus)
	f.documents.AssertExpectations(t)
	f.store.AssertExpectations(t)
}

func TestDocumentService_Upload_DuplicateContentIsNoOp(t *testing.T) {
	f := newDocumentServiceFixture(t)
	ctx := context.Background()
	data := []byte("identical bytes")
	dig := digest.Sum(data)

	existing := &model.DocumentVersion{
		ID:            "ver-1",
		ClientID:      "client-1",
		DocumentType:  model.DocumentTypePassportNIE,
		VersionNumber: 1,
		ContentDigest: dig,
	}
	current := &model.Document{ID: "doc-1", ClientID: "client-1", DocumentType: model.DocumentTypePassportNIE, ReviewStatus: model.ReviewStatusAccepted}

	f.clients.On("FindByID", ctx, "client-1").Return(fixtureClient(), nil)
	f.documents.On("FindVersionByDigest", ctx, "client-1", model.DocumentTypePassportNIE, dig).
		Return(existing, nil)
	f.documents.On("FindDocumentByClientAndType", ctx, "client-1", model.DocumentTypePassportNIE).Return(current, nil)
	f.audits.On("Append", ctx, mock.MatchedBy(func(e model.AuditEvent) bool {
		return e.EventType == model.AuditDuplicateUploadIgnored
	})).Return(nil)

	result, err := f.service.Upload(ctx, UploadDocumentInput{
		ClientID:     "client-1",
		DocumentType: model.DocumentTypePassportNIE,
		Filename:     "passport.pdf",
		MimeType:     "application/pdf",
		Data:         data,
	})

	assert.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, existing.ID, result.Version.ID)
	// Review state of the current document must be untouched.
	assert.Equal(t, model.ReviewStatusAccepted, result.Document.ReviewStatus)
	f.store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.documents.AssertNotCalled(t, "CreateVersionAndSetCurrent", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentService_Upload_ConflictAfterExhaustedRetries(t *testing.T) {
	f := newDocumentServiceFixture(t)
	ctx := context.Background()
	data := []byte("contended content")
	dig := digest.Sum(data)

	f.clients.On("FindByID", ctx, "client-1").Return(fixtureClient(), nil)
	// Digest never shows up: the contention is on version numbers, not content.
	f.documents.On("FindVersionByDigest", ctx, "client-1", model.DocumentTypeTasa, dig).
		Return(nil, apperrors.ErrNotFound)
	f.store.On("Upload", ctx, mock.AnythingOfType("string"), data, "application/pdf").Return(nil)
	f.documents.On("MaxVersionNumber", ctx, "client-1", model.DocumentTypeTasa).Return(5, nil)
	f.documents.On("CreateVersionAndSetCurrent", ctx, mock.Anything, mock.Anything).
		Return(apperrors.ErrDuplicate)

	result, err := f.service.Upload(ctx, UploadDocumentInput{
		ClientID:     "client-1",
		DocumentType: model.DocumentTypeTasa,
		Filename:     "tasa.pdf",
		MimeType:     "application/pdf",
		Data:         data,
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Nil(t, result)
	f.documents.AssertNumberOfCalls(t, "CreateVersionAndSetCurrent", versionAllocationAttempts)
}

func TestDocumentService_Upload_ValidationFailures(t *testing.T) {
	f := newDocumentServiceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input UploadDocumentInput
	}{
		{"missing client", UploadDocumentInput{DocumentType: model.DocumentTypeTasa, Filename: "f.pdf", Data: []byte("x")}},
		{"unknown type", UploadDocumentInput{ClientID: "c", DocumentType: "RECEIPT", Filename: "f.pdf", Data: []byte("x")}},
		{"missing filename", UploadDocumentInput{ClientID: "c", DocumentType: model.DocumentTypeTasa, Data: []byte("x")}},
		{"empty content", UploadDocumentInput{ClientID: "c", DocumentType: model.DocumentTypeTasa, Filename: "f.pdf"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := f.service.Upload(ctx, tc.input)
			assert.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Nil(t, result)
		})
	}
}

func TestDocumentService_Review_Accepted(t *testing.T) {
	f := newDocumentServiceFixture(t)
	ctx := context.Background()

	document := &model.Document{ID: "doc-1", ClientID: "client-1", DocumentType: model.DocumentTypeTasa, ReviewStatus: model.ReviewStatusAccepted}
	f.documents.On("UpdateReview", ctx, "doc-1", model.ReviewStatusAccepted, (*string)(nil)).Return(nil)
	f.documents.On("FindDocumentByID", ctx, "doc-1").Return(document, nil)
	f.audits.On("Append", ctx, mock.MatchedBy(func(e model.AuditEvent) bool {
		return e.EventType == model.AuditDocumentReviewed
	})).Return(nil)

	reviewed, err := f.service.Review(ctx, "doc-1", model.ReviewStatusAccepted, "", "case-worker")

	assert.NoError(t, err)
	assert.Equal(t, model.ReviewStatusAccepted, reviewed.ReviewStatus)
	f.documents.AssertExpectations(t)
}

func TestDocumentService_Review_RejectionRequiresNote(t *testing.T) {
	f := newDocumentServiceFixture(t)
	ctx := context.Background()

	for _, note := range []string{"", "   ", "\t\n"} {
		reviewed, err := f.service.Review(ctx, "doc-1", model.ReviewStatusRejected, note, "case-worker")
		assert.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Nil(t, reviewed)
	}
	f.documents.AssertNotCalled(t, "UpdateReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentService_Review_InvalidDecision(t *testing.T) {
	f := newDocumentServiceFixture(t)
	ctx := context.Background()

	reviewed, err := f.service.Review(ctx, "doc-1", model.ReviewStatusPending, "note", "case-worker")

	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Nil(t, reviewed)
}
