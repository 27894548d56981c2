package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
)

// channel is the slice of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	conn    *Connection
	channel func() (channel, error)
	timeout time.Duration
	logger  *logger.Logger
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	p := &Publisher{conn: conn, timeout: 5 * time.Second, logger: log}
	p.channel = func() (channel, error) {
		if conn.IsClosed() {
			if err := conn.Reconnect(); err != nil {
				return nil, fmt.Errorf("failed to reconnect: %w", err)
			}
		}
		ch := conn.Channel()
		if ch == nil {
			return nil, fmt.Errorf("no open channel")
		}
		return ch, nil
	}
	return p
}

// PublishOrderPlaced publishes an accepted order to the orders topic exchange
func (p *Publisher) PublishOrderPlaced(ctx context.Context, msg *models.OrderPlacedMessage, requestID string) error {
	return p.publishMessage(ctx, OrdersExchange, models.GenerateRoutingKey(msg.LocationID), msg, requestID)
}

func (p *Publisher) publishMessage(ctx context.Context, exchange, routingKey string, message interface{}, requestID string) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp091.Persistent,
		Timestamp:     time.Now(),
		CorrelationId: requestID,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("failed to publish message to %s: %w", exchange, err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		requestID, map[string]interface{}{
			"exchange":     exchange,
			"routing_key":  routingKey,
			"message_size": len(body),
		})
	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
