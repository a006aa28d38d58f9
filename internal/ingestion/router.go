package ingestion

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

// Webhook subjects this service consumes. The gateway publishes one event
// per provider callback; redelivery is expected and downstream application
// is idempotent.
const (
	SubjectMessages = "v1.webhook.messages"
	SubjectMedia    = "v1.webhook.media"
)

// MessageMetadata carries the JetStream delivery details a handler may need
// for logging and idempotency decisions.
type MessageMetadata struct {
	MessageID        string
	MessageSubject   string
	Stream           string
	Consumer         string
	StreamSequence   uint64
	ConsumerSequence uint64
	NumDelivered     uint64
	Timestamp        time.Time
}

// EventHandler defines a function that processes events
type EventHandler func(ctx context.Context, metadata *MessageMetadata, rawEvent []byte) error

// Router routes events to the appropriate handler based on subject
type Router struct {
	handlers map[string]EventHandler
	// Default handler for unknown subjects
	defaultHandler EventHandler
}

// NewRouter creates a new event router
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]EventHandler),
	}
}

// Register registers a handler for a subject
func (r *Router) Register(subject string, handler EventHandler) {
	r.handlers[subject] = handler
}

// RegisterDefault registers a default handler for unknown subjects
func (r *Router) RegisterDefault(handler EventHandler) {
	r.defaultHandler = handler
}

// Route routes an event to the appropriate handler
func (r *Router) Route(ctx context.Context, metadata *MessageMetadata, rawEvent []byte) error {
	log := logger.FromContext(ctx).With(
		zap.String("subject", metadata.MessageSubject),
		zap.String("event_id", metadata.MessageID),
	)
	ctx = logger.WithLogger(ctx, log)

	log.Info("Event received",
		zap.String("payload_size", utils.ByteCountSI(len(rawEvent))),
		zap.Uint64("num_delivered", metadata.NumDelivered),
	)

	handler, ok := r.handlers[metadata.MessageSubject]
	if !ok {
		if r.defaultHandler != nil {
			log.Warn("No specific handler for subject, using default")
			return r.defaultHandler(ctx, metadata, rawEvent)
		}
		log.Error("No handler registered for subject")
		return nil
	}

	return handler(ctx, metadata, rawEvent)
}
