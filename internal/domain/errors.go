package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch is returned when an ingestion request carries no events.
	ErrEmptyBatch = errors.New("batch must contain at least one event")

	// ErrBatchTooLarge is returned when an ingestion request exceeds the
	// maximum batch size.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
)

// ValidationError identifies the offending field of a rejected event. Index
// is the position of the event within its batch, -1 when the error did not
// occur in a batch context.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("event %d: %s %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// AtIndex returns a copy of the error positioned within a batch.
func (e *ValidationError) AtIndex(i int) *ValidationError {
	return &ValidationError{Index: i, Field: e.Field, Message: e.Message}
}
