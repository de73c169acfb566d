package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aykutaslan/event-analytics-pipeline/internal/repository"
)

// logEvery is how many processed events pass between operational log lines.
const logEvery = 5000

// Writer persists envelopes one at a time. A duplicate event_id is absorbed
// as success, which is what turns the broker's at-least-once delivery into
// exactly-once persistence. Messages are acknowledged only after the insert
// outcome is known; store errors leave the message nacked for redelivery.
type Writer struct {
	repository repository.EventRepository
	metrics    *Metrics
	log        *zap.Logger

	processed uint64
	failed    uint64
}

// NewWriter creates a new envelope writer
func NewWriter(repo repository.EventRepository, metrics *Metrics, log *zap.Logger) *Writer {
	return &Writer{
		repository: repo,
		metrics:    metrics,
		log:        log,
	}
}

// Start persists envelopes until the input channel closes. The context is
// used for store calls only, so a shutdown does not abort in-flight inserts.
func (w *Writer) Start(ctx context.Context, in <-chan *Envelope) {
	for envelope := range in {
		w.process(ctx, envelope)
	}

	w.log.Info("Writer shutting down",
		zap.Uint64("processed", w.processed),
		zap.Uint64("failed", w.failed))
}

func (w *Writer) process(ctx context.Context, envelope *Envelope) {
	event := envelope.Event
	event.IngestedAt = time.Now().UTC()

	outcome, err := w.repository.Insert(ctx, event)
	if err != nil {
		w.failed++
		w.metrics.IncFailed()
		w.log.Error("Failed to insert event, leaving for redelivery",
			zap.String("event_id", event.EventID.String()),
			zap.Error(err))
		if nackErr := envelope.Nack(); nackErr != nil {
			w.log.Error("Failed to nack envelope", zap.Error(nackErr))
		}
		return
	}

	if outcome == repository.OutcomeAlreadyExists {
		w.metrics.IncDuplicates()
	}

	w.processed++
	w.metrics.IncProcessed()

	if err := envelope.Ack(); err != nil {
		// The insert is durable; a failed ack only means the broker may
		// redeliver, and the duplicate will be absorbed on the next pass.
		w.log.Error("Failed to ack envelope",
			zap.String("event_id", event.EventID.String()),
			zap.Error(err))
	}

	if w.processed%logEvery == 0 {
		w.log.Info("Writer progress",
			zap.Uint64("processed", w.processed),
			zap.Uint64("failed", w.failed))
	}
}
