package mock

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"

	"gitlab.com/migralia/api/expediente-docs-service/internal/jetstream"
)

// ClientMock is a testify mock for the jetstream.ClientInterface.
type ClientMock struct {
	mock.Mock
}

var _ jetstream.ClientInterface = (*ClientMock)(nil)

func (m *ClientMock) SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error {
	args := m.Called(ctx, streamConfig)
	return args.Error(0)
}

func (m *ClientMock) SetupConsumer(ctx context.Context, streamName string, consumerConfig *nats.ConsumerConfig) error {
	args := m.Called(ctx, streamName, consumerConfig)
	return args.Error(0)
}

func (m *ClientMock) SubscribePush(subject, consumer, group, stream string, handler nats.MsgHandler) (*nats.Subscription, error) {
	args := m.Called(subject, consumer, group, stream, handler)
	var sub *nats.Subscription
	if v := args.Get(0); v != nil {
		sub = v.(*nats.Subscription)
	}
	return sub, args.Error(1)
}

func (m *ClientMock) Publish(subject string, data []byte, headers map[string]string) error {
	args := m.Called(subject, data, headers)
	return args.Error(0)
}

func (m *ClientMock) Close() {
	m.Called()
}

func (m *ClientMock) NatsConn() *nats.Conn {
	args := m.Called()
	var nc *nats.Conn
	if v := args.Get(0); v != nil {
		nc = v.(*nats.Conn)
	}
	return nc
}
