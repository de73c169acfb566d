package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
)

// Publisher defines the interface for publishing events to the durable queue
type Publisher interface {
	Publish(ctx context.Context, event *domain.EventInput) error
}

// Consumer defines the interface for consuming deliveries from the durable queue
type Consumer interface {
	Consume(ctx context.Context) (<-chan amqp.Delivery, error)
}
