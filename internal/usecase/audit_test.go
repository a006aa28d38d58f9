package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	storagemock "gitlab.com/migralia/api/expediente-docs-service/internal/storage/mock"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
)

func TestAuditRecorder_Record(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")
	repo := new(storagemock.AuditEventRepoMock)
	recorder := NewAuditRecorder(repo)

	repo.On("Append", mock.Anything, mock.MatchedBy(func(e model.AuditEvent) bool {
		return e.ID != "" && e.EventType == model.AuditDocumentUploaded && e.ClientID == "client-1"
	})).Return(nil)

	recorder.Record(context.Background(), "client-1", model.AuditDocumentUploaded, "case-worker", map[string]interface{}{
		"document_type": "TASA",
	})

	repo.AssertExpectations(t)
}

func TestAuditRecorder_Record_SwallowsWriteFailure(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")
	repo := new(storagemock.AuditEventRepoMock)
	recorder := NewAuditRecorder(repo)

	repo.On("Append", mock.Anything, mock.AnythingOfType("model.AuditEvent")).
		Return(errors.New("connection refused"))

	// Must not panic or propagate: audit is best-effort.
	recorder.Record(context.Background(), "client-1", model.AuditDocumentReviewed, "case-worker", nil)

	repo.AssertExpectations(t)
}
