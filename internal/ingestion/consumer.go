package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/config"
	"gitlab.com/migralia/api/expediente-docs-service/internal/jetstream"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

// AckAction represents the decision made after processing a message
type AckAction int

const (
	ActionAck      AckAction = iota // Message processed successfully, ACK it
	ActionTerm                      // Terminal failure, TERM so JetStream stops redelivering
	ActionNakDelay                  // Retryable error, NAK with calculated delay
)

// determineAckAction decides the fate of a message based on the processing
// result and delivery metadata. Terminal failures and exhausted redelivery
// budgets are TERMed; retryable errors are NAKed with exponential delay.
func determineAckAction(
	processingErr error,
	metadata *nats.MsgMetadata,
	maxDeliver int,
	nakBaseDelay time.Duration,
	nakMaxDelay time.Duration,
) (action AckAction, delay time.Duration) {

	if processingErr == nil {
		return ActionAck, 0
	}

	isRetryable := apperrors.IsRetryable(processingErr)
	numDelivered := metadata.NumDelivered

	if numDelivered >= uint64(maxDeliver) || !isRetryable {
		return ActionTerm, 0
	}

	attempt := numDelivered // Current attempt number (starts at 1)
	delay = nakBaseDelay
	if attempt > 1 {
		delay = nakBaseDelay * (1 << (attempt - 1)) // base * 2^(attempt-1)
	}
	if delay > nakMaxDelay {
		delay = nakMaxDelay
	}
	return ActionNakDelay, delay
}

// IntakeConsumer consumes the webhook event stream published by the
// messaging gateway and feeds the router.
type IntakeConsumer struct {
	client        jetstream.ClientInterface
	router        RouterInterface
	cfg           config.ConsumerNatsConfig
	ctx           context.Context
	cancel        context.CancelFunc
	sub           *nats.Subscription
	filterSubject string
}

// NewIntakeConsumer creates the consumer for the webhook event stream.
func NewIntakeConsumer(client jetstream.ClientInterface, router RouterInterface, cfg config.ConsumerNatsConfig) *IntakeConsumer {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logger.WithLogger(ctx, logger.Log.With(zap.String("consumer", cfg.Consumer)))

	return &IntakeConsumer{
		client: client,
		router: router,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Setup ensures the stream and durable consumer exist
func (c *IntakeConsumer) Setup() error {
	log := logger.FromContext(c.ctx)
	log.Info("Setting up IntakeConsumer...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))

	maxAgeRetention := time.Duration(c.cfg.MaxAge*24) * time.Hour

	streamCfg := &nats.StreamConfig{
		Name:      c.cfg.Stream,
		Subjects:  c.cfg.SubjectList,
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    maxAgeRetention,
	}

	if err := c.client.SetupStream(c.ctx, streamCfg); err != nil {
		log.Error("Failed to setup intake stream", zap.Error(err), zap.String("stream", c.cfg.Stream))
		return fmt.Errorf("failed to setup intake stream '%s': %w", c.cfg.Stream, err)
	}

	consumerCfg := &nats.ConsumerConfig{
		Durable:        c.cfg.Consumer,
		DeliverGroup:   c.cfg.QueueGroup,
		FilterSubjects: c.cfg.SubjectList,
		AckPolicy:      nats.AckExplicitPolicy,
		DeliverSubject: nats.NewInbox(),
		MaxDeliver:     c.cfg.MaxDeliver,
		AckWait:        30 * time.Second,
		MaxAckPending:  1000,
		ReplayPolicy:   nats.ReplayInstantPolicy,
		DeliverPolicy:  nats.DeliverAllPolicy,
	}
	c.filterSubject = "v1.webhook.>"

	if err := c.client.SetupConsumer(c.ctx, c.cfg.Stream, consumerCfg); err != nil {
		log.Error("Failed to setup intake consumer", zap.Error(err), zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))
		return fmt.Errorf("failed to setup intake consumer '%s' for stream '%s': %w", c.cfg.Consumer, c.cfg.Stream, err)
	}

	log.Info("IntakeConsumer setup complete")
	return nil
}

// Start subscribes to the stream
func (c *IntakeConsumer) Start() error {
	log := logger.FromContext(c.ctx)
	log.Info("Starting IntakeConsumer subscription...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))

	sub, err := c.client.SubscribePush(c.filterSubject, c.cfg.Consumer, c.cfg.QueueGroup, c.cfg.Stream, c.handleMessage)
	if err != nil {
		log.Error("Failed to subscribe intake consumer", zap.Error(err),
			zap.String("stream", c.cfg.Stream),
			zap.String("consumer", c.cfg.Consumer),
			zap.String("group", c.cfg.QueueGroup),
		)
		return fmt.Errorf("failed to subscribe intake consumer '%s': %w", c.cfg.Consumer, err)
	}
	c.sub = sub
	log.Info("IntakeConsumer subscribed successfully")
	return nil
}

// Stop drains the subscription and cancels the consumer context
func (c *IntakeConsumer) Stop() {
	log := logger.FromContext(c.ctx)
	log.Info("Stopping IntakeConsumer...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))
	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			log.Error("Error draining intake subscription", zap.Error(err))
		}
		log.Info("Intake subscription drained")
	}
	if c.cancel != nil {
		c.cancel()
	}
	log.Info("IntakeConsumer stopped")
}

// handleMessage is the core message processing logic
func (c *IntakeConsumer) handleMessage(msg *nats.Msg) {
	startTime := utils.Now()
	msgCtx := c.ctx
	log := logger.FromContext(msgCtx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("[panic] Recovered from panic in message handler",
				zap.Any("panic", r),
				zap.String("subject", msg.Subject),
				zap.Duration("duration", time.Since(startTime)),
				zap.Stack("stack"),
			)
			observer.IncEventFailed(msg.Subject)
			if nakErr := msg.Nak(); nakErr != nil {
				log.Error("Failed to NAK message after panic", zap.Error(nakErr))
			}
		}
	}()

	var msgID string
	if msg.Header != nil {
		msgID = msg.Header.Get("Nats-Msg-Id")
	}

	metadata, err := msg.Metadata()
	if err != nil {
		log.Error("Failed to read message metadata", zap.Error(err))
		observer.IncEventFailed(msg.Subject)
		if nakErr := msg.Nak(); nakErr != nil {
			log.Error("Failed to NAK message", zap.Error(nakErr))
		}
		return
	}
	if msgID == "" {
		msgID = fmt.Sprintf("msg-%d", metadata.Sequence.Stream)
	}

	internalMetadata := &MessageMetadata{
		MessageID:        msgID,
		MessageSubject:   msg.Subject,
		Stream:           metadata.Stream,
		Consumer:         metadata.Consumer,
		StreamSequence:   metadata.Sequence.Stream,
		ConsumerSequence: metadata.Sequence.Consumer,
		NumDelivered:     metadata.NumDelivered,
		Timestamp:        metadata.Timestamp,
	}

	observer.IncEventReceived(msg.Subject)

	msgCtx = logger.WithLogger(msgCtx, log.With(
		zap.String("nats_message_id", msgID),
		zap.Uint64("stream_sequence", internalMetadata.StreamSequence),
		zap.String("subject", msg.Subject),
	))

	processingErr := c.router.Route(msgCtx, internalMetadata, msg.Data)

	enhancedLog := logger.FromContext(msgCtx)
	action, nakDelay := determineAckAction(processingErr, metadata, c.cfg.MaxDeliver, c.cfg.NakBaseDelay, c.cfg.NakMaxDelay)

	switch action {
	case ActionAck:
		enhancedLog.Info("Successfully processed message", zap.Duration("duration", time.Since(startTime)))
		observer.IncEventProcessed(msg.Subject)
		if ackErr := msg.Ack(); ackErr != nil {
			enhancedLog.Error("Failed to ACK message after successful processing", zap.Error(ackErr))
		}

	case ActionTerm:
		enhancedLog.Error("Terminating message (terminal failure or redelivery budget exhausted)",
			zap.Error(processingErr),
			zap.Uint64("num_delivered", metadata.NumDelivered),
			zap.Int("max_deliver", c.cfg.MaxDeliver),
			zap.Duration("duration", time.Since(startTime)),
		)
		observer.IncEventFailed(msg.Subject)
		if termErr := msg.Term(); termErr != nil {
			enhancedLog.Error("Failed to TERM message", zap.Error(termErr))
		}

	case ActionNakDelay:
		enhancedLog.Info("NAKing message with delay for redelivery (retryable error)",
			zap.Error(processingErr),
			zap.Uint64("num_delivered", metadata.NumDelivered),
			zap.Int("max_deliver", c.cfg.MaxDeliver),
			zap.Duration("nak_delay", nakDelay),
			zap.Duration("duration", time.Since(startTime)),
		)
		observer.IncEventFailed(msg.Subject)
		if nakErr := msg.NakWithDelay(nakDelay); nakErr != nil {
			enhancedLog.Error("Failed to NAK message with delay", zap.Error(nakErr))
		}
	}
}
