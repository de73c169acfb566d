package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the worker's operational counters. They are observability
// aids only and reset on restart.
type Metrics struct {
	Processed    prometheus.Counter
	Duplicates   prometheus.Counter
	Failed       prometheus.Counter
	DeadLettered prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Processed: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_events_processed_total",
			Help: "Total number of events persisted or absorbed as duplicates",
		}),
		Duplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_events_duplicate_total",
			Help: "Total number of duplicate events absorbed as success",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_events_failed_total",
			Help: "Total number of events that failed processing",
		}),
		DeadLettered: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_events_dead_lettered_total",
			Help: "Total number of poison messages routed to the dead-letter queue",
		}),
	}
}

func (m *Metrics) IncProcessed() {
	m.Processed.Inc()
}

func (m *Metrics) IncDuplicates() {
	m.Duplicates.Inc()
}

func (m *Metrics) IncFailed() {
	m.Failed.Inc()
}

func (m *Metrics) IncDeadLettered() {
	m.DeadLettered.Inc()
}
