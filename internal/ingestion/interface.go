package ingestion

import "context"

// RouterInterface defines the interface for an event router
type RouterInterface interface {
	// Register registers a handler for a subject
	Register(subject string, handler EventHandler)

	// RegisterDefault registers a default handler for unknown subjects
	RegisterDefault(handler EventHandler)

	// Route routes an event to the appropriate handler
	Route(ctx context.Context, metadata *MessageMetadata, rawEvent []byte) error
}

// ConsumerInterface defines the basic methods for a NATS consumer
type ConsumerInterface interface {
	// Setup sets up the JetStream stream and consumer
	Setup() error

	// Start subscribes and starts delivering messages
	Start() error

	// Stop stops the consumer
	Stop()
}

// Ensure Router implements RouterInterface
var _ RouterInterface = (*Router)(nil)

// Ensure IntakeConsumer implements ConsumerInterface
var _ ConsumerInterface = (*IntakeConsumer)(nil)
