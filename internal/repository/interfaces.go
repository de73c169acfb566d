package repository

import (
	"context"
	"time"

	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
)

// InsertOutcome reports what an insert did. A duplicate event_id is a normal
// outcome, not an error: the worker treats AlreadyExists as success, which is
// what converts at-least-once delivery into exactly-once persistence.
type InsertOutcome int

const (
	OutcomeInserted InsertOutcome = iota
	OutcomeAlreadyExists
)

// DAURow is the distinct-user count for one calendar day.
type DAURow struct {
	Date string
	DAU  int64
}

// EventTypeCount is an event-type frequency within a queried range.
type EventTypeCount struct {
	EventType string
	Count     int64
}

// EventRepository defines the interface for event storage operations. All
// query methods are read-only; range bounds are half-open [from, to).
type EventRepository interface {
	// InitSchema creates the events table and its index paths if needed.
	InitSchema(ctx context.Context) error

	// Insert writes a single event, enforcing event_id uniqueness
	// server-side.
	Insert(ctx context.Context, event *domain.Event) (InsertOutcome, error)

	// DailyActiveUsers counts distinct users per calendar day of
	// occurred_at, ascending by day. Days without events are omitted.
	DailyActiveUsers(ctx context.Context, from, to time.Time) ([]DAURow, error)

	// TopEventTypes returns the most frequent event types in range, ties
	// broken by event type ascending so rankings are deterministic.
	TopEventTypes(ctx context.Context, from, to time.Time, limit int) ([]EventTypeCount, error)

	// DistinctUsers returns the distinct user ids with at least one event
	// in range.
	DistinctUsers(ctx context.Context, from, to time.Time) ([]int64, error)

	// RetainedUsers counts the members of cohort with at least one event
	// in range. Membership is tested only against the given cohort.
	RetainedUsers(ctx context.Context, from, to time.Time, cohort []int64) (int64, error)

	// TotalEvents returns the total number of persisted events.
	TotalEvents(ctx context.Context) (int64, error)

	// OldestEvent and NewestEvent return the occurred_at bounds of the
	// store; ok is false when the store is empty.
	OldestEvent(ctx context.Context) (time.Time, bool, error)
	NewestEvent(ctx context.Context) (time.Time, bool, error)

	// Ping checks if the database connection is alive.
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources.
	Close() error
}
