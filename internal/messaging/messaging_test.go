package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func newTestPublisher(ch *fakeChannel) *Publisher {
	return &Publisher{
		channel: func() (channel, error) { return ch, nil },
		timeout: time.Second,
		logger:  logger.Nop(),
	}
}

func TestPublishOrderPlaced(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	msg := &models.OrderPlacedMessage{
		OrderID:    "ORDER123",
		LocationID: "LOC",
		LineItems:  []models.ResolvedLineItem{{CatalogVariationID: "V1", DisplayName: "Burger", UnitQuantity: 2}},
	}
	require.NoError(t, p.PublishOrderPlaced(context.Background(), msg, "req-1"))

	assert.Equal(t, OrdersExchange, ch.exchange)
	assert.Equal(t, "orders.placed.LOC", ch.key)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "req-1", ch.msg.CorrelationId)

	var got models.OrderPlacedMessage
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, "ORDER123", got.OrderID)
	assert.Equal(t, 2, got.LineItems[0].UnitQuantity)
}

func TestPublishOrderPlaced_Error(t *testing.T) {
	p := newTestPublisher(&fakeChannel{err: errors.New("channel closed")})
	err := p.PublishOrderPlaced(context.Background(), &models.OrderPlacedMessage{LocationID: "LOC"}, "")
	assert.ErrorContains(t, err, "channel closed")
}

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(multiple, requeue bool) error {
	f.nacked, f.requeue = true, requeue
	return nil
}

func TestConsumerProcess(t *testing.T) {
	tests := []struct {
		name        string
		handlerErr  error
		wantAck     bool
		wantRequeue bool
	}{
		{"success acks", nil, true, false},
		{"transient error requeues", errors.New("busy"), false, true},
		{"malformed message is dropped", fmt.Errorf("decode: %w", ErrMalformedMessage), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Consumer{logger: logger.Nop(), queueName: KitchenFeedQueue, timeout: time.Second}
			ack := &fakeAck{}

			c.process(context.Background(), ack, "orders.placed.LOC", "req-1", []byte(`{}`), func(ctx context.Context, body []byte) error {
				return tt.handlerErr
			})

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, !tt.wantAck, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
		})
	}
}
