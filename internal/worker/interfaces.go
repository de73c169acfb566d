package worker

import (
	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
)

// MessageParser defines the interface for parsing raw message bytes into events
type MessageParser interface {
	Parse(body []byte) (*domain.Event, error)
}
