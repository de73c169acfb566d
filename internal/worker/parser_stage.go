package worker

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/aykutaslan/event-analytics-pipeline/internal/queue/rabbitmq"
)

// ParserStage decodes broker deliveries into domain envelopes. Poison
// messages (wrong content type, undecodable or invalid payloads) are
// rejected without requeue so the broker dead-letters them instead of
// redelivering forever. The stage runs until its input closes, so deliveries
// already received are always resolved before shutdown.
type ParserStage struct {
	parser  MessageParser
	metrics *Metrics
	log     *zap.Logger
}

// NewParserStage creates a new parser stage
func NewParserStage(parser MessageParser, metrics *Metrics, log *zap.Logger) *ParserStage {
	return &ParserStage{
		parser:  parser,
		metrics: metrics,
		log:     log,
	}
}

// Start parses deliveries from in and sends envelopes to out
func (p *ParserStage) Start(in <-chan amqp.Delivery, out chan<- *Envelope) {
	defer close(out)

	for delivery := range in {
		envelope := p.parseDelivery(delivery)
		if envelope == nil {
			continue
		}
		out <- envelope
	}

	p.log.Info("Parser stage input channel closed")
}

// parseDelivery decodes a single delivery into an envelope, dead-lettering
// it on failure
func (p *ParserStage) parseDelivery(delivery amqp.Delivery) *Envelope {
	if delivery.ContentType != rabbitmq.ContentType {
		p.log.Warn("Unexpected content type, dead-lettering message",
			zap.String("content_type", delivery.ContentType))
		p.rejectDelivery(delivery)
		return nil
	}

	event, err := p.parser.Parse(delivery.Body)
	if err != nil {
		p.log.Warn("Failed to parse message, dead-lettering",
			zap.Error(err))
		p.rejectDelivery(delivery)
		return nil
	}

	ack := func() error {
		return delivery.Ack(false)
	}

	nack := func() error {
		return delivery.Nack(false, true)
	}

	reject := func() error {
		return delivery.Nack(false, false)
	}

	return NewEnvelope(event, ack, nack, reject)
}

func (p *ParserStage) rejectDelivery(delivery amqp.Delivery) {
	p.metrics.IncFailed()
	p.metrics.IncDeadLettered()
	if err := delivery.Nack(false, false); err != nil {
		p.log.Error("Failed to dead-letter message", zap.Error(err))
	}
}
