package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/config"
)

func TestFromKafka_CopiesPayloadAndHeaders(t *testing.T) {
	key := []byte("order-7")
	msg := kafka.Message{
		Topic:   "nursery.orders",
		Key:     key,
		Value:   []byte(`{"type":"order.created"}`),
		Offset:  42,
		Headers: []kafka.Header{{Key: HeaderContentType, Value: []byte("application/json")}},
	}

	out := fromKafka(msg)
	key[0] = 'X'

	assert.Equal(t, "nursery.orders", out.Topic)
	assert.Equal(t, "order-7", string(out.Key))
	assert.Equal(t, int64(42), out.Offset)
	assert.Equal(t, "application/json", out.Headers[HeaderContentType])
	assert.Nil(t, fromKafka(kafka.Message{}).Headers)
}

func TestNewClient_DisabledIsNoop(t *testing.T) {
	var cfg config.Config
	cfg.Messaging.Driver = "kafka"
	cfg.Messaging.Kafka.Topic = "nursery.orders"

	client, err := NewClient(fxtest.NewLifecycle(t), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "nursery.orders", client.Topic())
	require.NoError(t, client.Publish(context.Background(), []byte("k"), []byte("v")))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, client.Consume(ctx, nil), context.DeadlineExceeded)
}

func TestNewClient_UnknownDriver(t *testing.T) {
	var cfg config.Config
	cfg.Messaging.Enabled = true
	cfg.Messaging.Driver = "nats"

	_, err := NewClient(fxtest.NewLifecycle(t), cfg, zap.NewNop())
	assert.Error(t, err)
}
