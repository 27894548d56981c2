package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/isaac-anthony/mano/internal/logger"
)

// ErrMalformedMessage marks a delivery that can never be processed. Such
// deliveries are dropped instead of requeued.
var ErrMalformedMessage = errors.New("malformed message")

// MessageHandler handles one delivery body. Returning an error wrapping
// ErrMalformedMessage drops the delivery; any other error requeues it.
type MessageHandler func(ctx context.Context, body []byte) error

// acknowledger is the part of amqp091.Delivery the consumer settles with.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Consumer feeds deliveries from one queue to a handler.
type Consumer struct {
	conn        *Connection
	logger      *logger.Logger
	queueName   string
	consumerTag string
	prefetch    int
	timeout     time.Duration
}

func NewConsumer(conn *Connection, log *logger.Logger, queueName, consumerTag string, prefetch int) *Consumer {
	return &Consumer{
		conn:        conn,
		logger:      log,
		queueName:   queueName,
		consumerTag: consumerTag,
		prefetch:    prefetch,
		timeout:     30 * time.Second,
	}
}

// StartConsuming consumes until ctx is cancelled, reconnecting when the
// broker closes the channel.
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	for {
		err := c.consume(ctx, handler)
		if ctx.Err() != nil {
			c.logger.Info("consumer_stopped", "Consumer stopped by context", "", nil)
			return ctx.Err()
		}
		if err != nil {
			return err
		}

		c.logger.Warn("consumer_channel_closed", "Broker closed the delivery channel, reconnecting", "", map[string]interface{}{
			"queue": c.queueName,
		})
		if err := c.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect after channel closed: %w", err)
		}
	}
}

// consume returns nil when the broker closes the delivery channel.
func (c *Consumer) consume(ctx context.Context, handler MessageHandler) error {
	if c.conn.IsClosed() {
		if err := c.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}
	ch := c.conn.Channel()
	if ch == nil {
		return fmt.Errorf("no open channel for queue %s", c.queueName)
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch %d: %w", c.prefetch, err)
	}

	// manual ack, non-exclusive
	deliveries, err := ch.Consume(c.queueName, c.consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.queueName, err)
	}

	c.logger.Info("consumer_started", "Listening for placed orders", "", map[string]interface{}{
		"queue":    c.queueName,
		"consumer": c.consumerTag,
		"prefetch": c.prefetch,
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.process(ctx, &d, d.RoutingKey, d.CorrelationId, d.Body, handler)
		}
	}
}

// process runs the handler on one delivery and settles it. The correlation
// id is the request id of the call that placed the order.
func (c *Consumer) process(ctx context.Context, ack acknowledger, routingKey, correlationID string, body []byte, handler MessageHandler) {
	start := time.Now()

	handlerCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := handler(handlerCtx, body)
	fields := map[string]interface{}{
		"queue":       c.queueName,
		"routing_key": routingKey,
		"duration_ms": time.Since(start).Milliseconds(),
	}

	var settleErr error
	switch {
	case err == nil:
		c.logger.Debug("message_processed", "Order event handled", correlationID, fields)
		settleErr = ack.Ack(false)
	case errors.Is(err, ErrMalformedMessage):
		c.logger.Error("message_dropped", "Dropping order event that cannot be decoded", correlationID, err, fields)
		settleErr = ack.Nack(false, false)
	default:
		c.logger.Error("message_requeued", "Order event failed, returning it to the queue", correlationID, err, fields)
		settleErr = ack.Nack(false, true)
	}
	if settleErr != nil {
		c.logger.Error("message_settle_failed", "Failed to settle delivery", correlationID, settleErr, fields)
	}
}

// Close cancels the subscription. The connection stays open for its owner
// to close.
func (c *Consumer) Close() error {
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	ch := c.conn.Channel()
	if ch == nil {
		return nil
	}
	if err := ch.Cancel(c.consumerTag, false); err != nil {
		return fmt.Errorf("failed to cancel consumer %s: %w", c.consumerTag, err)
	}
	return nil
}

var _ acknowledger = (*amqp091.Delivery)(nil)
