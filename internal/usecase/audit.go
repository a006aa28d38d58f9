package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/internal/storage"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

// AuditRecorder appends audit events on a best-effort basis. A failed write
// is logged and counted but never propagated: audit must not take down the
// operation it describes.
type AuditRecorder struct {
	repo storage.AuditEventRepo
}

// NewAuditRecorder creates a new audit recorder.
func NewAuditRecorder(repo storage.AuditEventRepo) *AuditRecorder {
	return &AuditRecorder{repo: repo}
}

// Record appends one audit event.
func (r *AuditRecorder) Record(ctx context.Context, clientID, eventType, actor string, details map[string]interface{}) {
	event := model.AuditEvent{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		EventType: eventType,
		Actor:     actor,
		CreatedAt: utils.Now(),
	}
	if len(details) > 0 {
		event.Details = datatypes.JSON(utils.MustMarshalJSON(details))
	}

	if err := r.repo.Append(ctx, event); err != nil {
		observer.IncAuditWriteFailure()
		logger.FromContext(ctx).Warn("Failed to record audit event",
			zap.String("event_type", eventType),
			zap.String("client_id", clientID),
			zap.Error(err))
	}
}
