package worker

import (
	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
)

// Envelope wraps a domain event with acknowledgment callbacks. Ack confirms
// persistence, Nack returns the message to the queue for redelivery, and
// Reject routes it to the dead-letter queue.
type Envelope struct {
	Event  *domain.Event
	ack    func() error
	nack   func() error
	reject func() error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(event *domain.Event, ack, nack, reject func() error) *Envelope {
	return &Envelope{
		Event:  event,
		ack:    ack,
		nack:   nack,
		reject: reject,
	}
}

// Ack acknowledges successful processing
func (e *Envelope) Ack() error {
	if e.ack != nil {
		return e.ack()
	}
	return nil
}

// Nack returns the message to the queue for redelivery
func (e *Envelope) Nack() error {
	if e.nack != nil {
		return e.nack()
	}
	return nil
}

// Reject routes the message to the dead-letter queue
func (e *Envelope) Reject() error {
	if e.reject != nil {
		return e.reject()
	}
	return nil
}
