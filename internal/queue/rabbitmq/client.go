package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/aykutaslan/event-analytics-pipeline/internal/config"
	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
)

// ContentType marks msgpack-encoded event payloads so consumers can check
// the encoding before decoding.
const ContentType = "application/msgpack"

// Client wraps a RabbitMQ connection with the queue topology this system
// uses: a durable events queue whose rejected messages route through a
// direct dead-letter exchange into a durable dead-letter queue.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.RabbitMQ
	log     *zap.Logger
}

// NewClient connects to RabbitMQ and declares the queue topology. Broker
// unavailability at startup is the expected failure, so the connection is
// retried with fixed backoff before the error is surfaced as fatal.
func NewClient(rmqConfig config.RabbitMQ, log *zap.Logger) (*Client, error) {
	c := &Client{
		config: rmqConfig,
		log:    log,
	}

	backoff := time.Duration(rmqConfig.ConnectBackoff) * time.Second

	var lastErr error
	for attempt := 1; attempt <= rmqConfig.ConnectAttempts; attempt++ {
		if err := c.connect(); err != nil {
			lastErr = err
			log.Warn("RabbitMQ connection attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", rmqConfig.ConnectAttempts),
				zap.Error(err))
			if attempt < rmqConfig.ConnectAttempts {
				time.Sleep(backoff)
			}
			continue
		}

		log.Info("RabbitMQ connection established",
			zap.String("queue", rmqConfig.QueueName),
			zap.String("dead_letter_queue", rmqConfig.DeadLetterQueue),
			zap.Int("prefetch", rmqConfig.PrefetchCount))
		return c, nil
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w",
		rmqConfig.ConnectAttempts, lastErr)
}

// connect dials the broker and declares the dead-letter exchange, the
// dead-letter queue bound to it, and the main durable queue configured to
// dead-letter rejected messages.
func (c *Client) connect() error {
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Prefetch bounds the unacknowledged deliveries a consumer may hold,
	// which is what backpressures a slow worker.
	if err := channel.Qos(c.config.PrefetchCount, 0, false); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := channel.ExchangeDeclare(
		c.config.DeadLetterExch,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare dead-letter exchange: %w", err)
	}

	if _, err := channel.QueueDeclare(
		c.config.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare dead-letter queue: %w", err)
	}

	if err := channel.QueueBind(
		c.config.DeadLetterQueue,
		c.config.QueueName, // routing key matches the main queue name
		c.config.DeadLetterExch,
		false,
		nil,
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to bind dead-letter queue: %w", err)
	}

	if _, err := channel.QueueDeclare(
		c.config.QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange":    c.config.DeadLetterExch,
			"x-dead-letter-routing-key": c.config.QueueName,
		},
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare events queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return nil
}

// Publish serializes the event with msgpack and publishes it as a persistent
// message to the events queue. Failures propagate to the caller; the
// ingestion boundary fails the client request rather than buffering.
func (c *Client) Publish(ctx context.Context, event *domain.EventInput) error {
	body, err := msgpack.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		"",                 // default exchange
		c.config.QueueName, // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  ContentType,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		c.log.Error("Failed to publish event",
			zap.String("event_id", event.EventID),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Consume registers a manual-ack consumer on the events queue and returns
// its delivery channel. Unacknowledged deliveries are redelivered by the
// broker; rejected ones route to the dead-letter queue.
func (c *Client) Consume(ctx context.Context) (<-chan amqp.Delivery, error) {
	deliveries, err := c.channel.ConsumeWithContext(ctx,
		c.config.QueueName,
		"",    // consumer tag, broker-assigned
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}

	return deliveries, nil
}

// Close closes the channel and connection gracefully. In-flight
// unacknowledged deliveries become redeliverable.
func (c *Client) Close() error {
	c.log.Info("Closing RabbitMQ connection")

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.log.Error("Error closing RabbitMQ channel", zap.Error(err))
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.log.Error("Error closing RabbitMQ connection", zap.Error(err))
			return err
		}
	}

	return nil
}
