package worker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Receiver forwards broker deliveries into the pipeline. It stops when the
// context is cancelled or when the broker closes the delivery channel, and
// closes its output so downstream stages drain and exit in order.
type Receiver struct {
	log *zap.Logger
}

// NewReceiver creates a new delivery receiver
func NewReceiver(log *zap.Logger) *Receiver {
	return &Receiver{log: log}
}

// Start forwards deliveries until the source channel closes
func (r *Receiver) Start(ctx context.Context, deliveries <-chan amqp.Delivery, out chan<- amqp.Delivery) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Receiver shutting down")
			return
		case delivery, ok := <-deliveries:
			if !ok {
				r.log.Info("Delivery channel closed by broker")
				return
			}

			select {
			case <-ctx.Done():
				r.log.Info("Receiver shutting down while forwarding delivery")
				return
			case out <- delivery:
				// Delivery sent to next stage
			}
		}
	}
}
