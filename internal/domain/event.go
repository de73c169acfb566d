package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a persisted user-behavior event. Events are immutable once
// written; OccurredAt is the only time axis analytics queries use, while
// IngestedAt is assigned at write time for operational purposes only.
type Event struct {
	EventID    uuid.UUID      `json:"event_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	UserID     int64          `json:"user_id"`
	EventType  string         `json:"event_type"`
	Properties map[string]any `json:"properties"`
	IngestedAt time.Time      `json:"ingested_at"`
}

// EventInput is the wire shape of an event, shared by the HTTP ingestion
// boundary and the queue payload. The same validation runs in both places so
// a malformed publish cannot reach the store.
type EventInput struct {
	EventID    string         `json:"event_id" msgpack:"event_id"`
	OccurredAt string         `json:"occurred_at" msgpack:"occurred_at"`
	UserID     int64          `json:"user_id" msgpack:"user_id"`
	EventType  string         `json:"event_type" msgpack:"event_type"`
	Properties map[string]any `json:"properties" msgpack:"properties"`
}

// occurredAtLayouts mirror the timestamp formats upstream SDKs emit:
// RFC 3339 with a zone, or a zone-less ISO-8601 timestamp assumed UTC.
var occurredAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// Validate checks the input against the ingestion rules and reports the
// first offending field.
func (in *EventInput) Validate() error {
	if _, err := uuid.Parse(in.EventID); err != nil {
		return &ValidationError{Index: -1, Field: "event_id", Message: "must be a valid UUID"}
	}
	if _, err := parseOccurredAt(in.OccurredAt); err != nil {
		return &ValidationError{Index: -1, Field: "occurred_at", Message: "must be an ISO-8601 timestamp"}
	}
	if in.UserID < 1 {
		return &ValidationError{Index: -1, Field: "user_id", Message: "must be a positive integer"}
	}
	if strings.TrimSpace(in.EventType) == "" {
		return &ValidationError{Index: -1, Field: "event_type", Message: "must be a non-empty string"}
	}
	return nil
}

// Event converts a validated input into a domain event. IngestedAt is left
// zero; the persistence worker stamps it at write time.
func (in *EventInput) Event() (*Event, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, _ := uuid.Parse(in.EventID)
	occurredAt, _ := parseOccurredAt(in.OccurredAt)

	props := in.Properties
	if props == nil {
		props = map[string]any{}
	}

	return &Event{
		EventID:    id,
		OccurredAt: occurredAt,
		UserID:     in.UserID,
		EventType:  strings.TrimSpace(in.EventType),
		Properties: props,
	}, nil
}

func parseOccurredAt(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range occurredAtLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
