package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
	"github.com/aykutaslan/event-analytics-pipeline/internal/queue/rabbitmq"
)

// fakeAcknowledger records the resolution of a delivery
type fakeAcknowledger struct {
	acked    bool
	requeued bool
	rejected bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	if requeue {
		f.requeued = true
	} else {
		f.rejected = true
	}
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.rejected = !requeue
	f.requeued = requeue
	return nil
}

func newDelivery(ack *fakeAcknowledger, contentType string, body []byte) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		ContentType:  contentType,
		Body:         body,
	}
}

func validBody(t *testing.T) []byte {
	body, err := msgpack.Marshal(&domain.EventInput{
		EventID:    "a2c91b8e-3f41-4c9d-9d12-6a0f4bb1a001",
		OccurredAt: "2025-08-01T10:30:00Z",
		UserID:     42,
		EventType:  "page_view",
	})
	assert.NoError(t, err)
	return body
}

func newTestParserStage() *ParserStage {
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewParserStage(NewMsgpackEventParser(), metrics, zap.NewNop())
}

func TestParserStage_ValidDeliveryBecomesEnvelope(t *testing.T) {
	stage := newTestParserStage()
	ack := &fakeAcknowledger{}

	in := make(chan amqp.Delivery, 1)
	out := make(chan *Envelope, 1)

	in <- newDelivery(ack, rabbitmq.ContentType, validBody(t))
	close(in)

	stage.Start(in, out)

	envelope, ok := <-out
	assert.True(t, ok)
	assert.Equal(t, "page_view", envelope.Event.EventType)

	// The stage only parses; resolution belongs to the writer.
	assert.False(t, ack.acked)
	assert.False(t, ack.rejected)

	assert.NoError(t, envelope.Ack())
	assert.True(t, ack.acked)
}

func TestParserStage_PoisonPayloadDeadLettered(t *testing.T) {
	stage := newTestParserStage()
	ack := &fakeAcknowledger{}

	in := make(chan amqp.Delivery, 1)
	out := make(chan *Envelope, 1)

	in <- newDelivery(ack, rabbitmq.ContentType, []byte("garbage"))
	close(in)

	stage.Start(in, out)

	_, ok := <-out
	assert.False(t, ok, "poison delivery must not produce an envelope")

	// Rejected without requeue, so the broker dead-letters instead of
	// redelivering forever.
	assert.True(t, ack.rejected)
	assert.False(t, ack.requeued)
}

func TestParserStage_WrongContentTypeDeadLettered(t *testing.T) {
	stage := newTestParserStage()
	ack := &fakeAcknowledger{}

	in := make(chan amqp.Delivery, 1)
	out := make(chan *Envelope, 1)

	in <- newDelivery(ack, "text/plain", validBody(t))
	close(in)

	stage.Start(in, out)

	_, ok := <-out
	assert.False(t, ok)
	assert.True(t, ack.rejected)
}

func TestParserStage_InvalidEventDeadLettered(t *testing.T) {
	stage := newTestParserStage()
	ack := &fakeAcknowledger{}

	body, err := msgpack.Marshal(&domain.EventInput{
		EventID:    "a2c91b8e-3f41-4c9d-9d12-6a0f4bb1a001",
		OccurredAt: "2025-08-01T10:30:00Z",
		UserID:     -5,
		EventType:  "page_view",
	})
	assert.NoError(t, err)

	in := make(chan amqp.Delivery, 1)
	out := make(chan *Envelope, 1)

	in <- newDelivery(ack, rabbitmq.ContentType, body)
	close(in)

	stage.Start(in, out)

	_, ok := <-out
	assert.False(t, ok)
	assert.True(t, ack.rejected)
}
