package worker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/aykutaslan/event-analytics-pipeline/internal/queue"
	"github.com/aykutaslan/event-analytics-pipeline/internal/repository"
)

// stageBufferSize bounds the channels between pipeline stages. Together with
// the broker prefetch it caps how many deliveries the worker holds at once.
const stageBufferSize = 100

// Worker orchestrates a pipeline of stages to persist queued events:
// receiver → parser → writer. Shutdown propagates by closing channels stage
// by stage, so every delivery already in the pipeline is resolved (acked,
// nacked or dead-lettered) before Start returns.
type Worker struct {
	consumer queue.Consumer
	receiver *Receiver
	parser   *ParserStage
	writer   *Writer
	log      *zap.Logger
}

// NewWorker creates a new worker with a pipeline architecture
func NewWorker(consumer queue.Consumer, repo repository.EventRepository, metrics *Metrics, log *zap.Logger) *Worker {
	return &Worker{
		consumer: consumer,
		receiver: NewReceiver(log),
		parser:   NewParserStage(NewMsgpackEventParser(), metrics, log),
		writer:   NewWriter(repo, metrics, log),
		log:      log,
	}
}

// Start runs the pipeline until the context is cancelled or the broker
// closes the consumer
func (w *Worker) Start(ctx context.Context) error {
	deliveries, err := w.consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	deliveryChan := make(chan amqp.Delivery, stageBufferSize)
	envelopeChan := make(chan *Envelope, stageBufferSize)

	var wg sync.WaitGroup
	wg.Add(3)

	// Stage 1: Receive deliveries from the broker
	go func() {
		defer wg.Done()
		w.receiver.Start(ctx, deliveries, deliveryChan)
	}()

	// Stage 2: Parse deliveries into envelopes
	go func() {
		defer wg.Done()
		w.parser.Start(deliveryChan, envelopeChan)
	}()

	// Stage 3: Persist envelopes to the repository. Inserts run on an
	// uncancellable context so in-flight messages finish during shutdown.
	go func() {
		defer wg.Done()
		w.writer.Start(context.WithoutCancel(ctx), envelopeChan)
	}()

	wg.Wait()
	w.log.Info("Worker pipeline stopped")
	return nil
}
