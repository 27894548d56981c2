package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/isaac-anthony/mano/internal/config"
	"github.com/isaac-anthony/mano/internal/logger"
)

// Topology names shared by publisher and kitchen feed.
const (
	OrdersExchange   = "orders_topic"
	KitchenFeedQueue = "kitchen_feed_queue"
	OrderPlacedKeys  = "orders.placed.*"
)

// Connection wraps RabbitMQ connection with reconnection logic
type Connection struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  *logger.Logger
	url     string

	maxRetries int
	retryWait  time.Duration
}

// New creates a new RabbitMQ connection
func New(cfg *config.Config, log *logger.Logger) (*Connection, error) {
	conn := &Connection{
		logger:     log,
		url:        cfg.RabbitMQURL(),
		maxRetries: 5,
		retryWait:  2 * time.Second,
	}

	if err := conn.connect(); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}
	return conn, nil
}

// connect establishes connection to RabbitMQ with retry logic
func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for i := 0; i < c.maxRetries; i++ {
		if err = c.dial(); err == nil {
			return nil
		}

		if i < c.maxRetries-1 {
			waitTime := time.Duration(i+1) * c.retryWait
			c.logger.Error("rabbitmq_connection_failed",
				fmt.Sprintf("Failed to connect to RabbitMQ, retrying in %v", waitTime),
				"startup", err, nil)
			time.Sleep(waitTime)
		}
	}

	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", c.maxRetries, err)
}

func (c *Connection) dial() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := setupTopology(ch); err != nil {
		c.logger.Error("rabbitmq_setup_failed", "Failed to set up topology", "startup", err, nil)
		ch.Close()
		conn.Close()
		return err
	}
	c.conn, c.channel = conn, ch
	return nil
}

// kitchenTicketTTL drops tickets nobody printed within the hour.
const kitchenTicketTTL = time.Hour

// setupTopology declares the orders exchange and binds the kitchen feed
// queue to every location's placed-order events.
func setupTopology(ch *amqp091.Channel) error {
	// durable topic exchange
	if err := ch.ExchangeDeclare(OrdersExchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", OrdersExchange, err)
	}

	args := amqp091.Table{"x-message-ttl": kitchenTicketTTL.Milliseconds()}
	if _, err := ch.QueueDeclare(KitchenFeedQueue, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", KitchenFeedQueue, err)
	}

	if err := ch.QueueBind(KitchenFeedQueue, OrderPlacedKeys, OrdersExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s to %s: %w", KitchenFeedQueue, OrderPlacedKeys, err)
	}
	return nil
}

// Channel returns the shared channel, or nil while disconnected.
func (c *Connection) Channel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// Close closes the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

func (c *Connection) close() error {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsClosed reports whether there is no live broker connection.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == nil || c.conn.IsClosed()
}

// Reconnect drops whatever is left of the old connection and dials again
// with the same backoff as startup.
func (c *Connection) Reconnect() error {
	c.mu.Lock()
	c.close()
	c.mu.Unlock()
	return c.connect()
}
