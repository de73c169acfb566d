package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validInput() EventInput {
	return EventInput{
		EventID:    "a2c91b8e-3f41-4c9d-9d12-6a0f4bb1a001",
		OccurredAt: "2025-08-01T10:30:00Z",
		UserID:     42,
		EventType:  "page_view",
		Properties: map[string]any{"path": "/home"},
	}
}

func TestEventInput_Validate_Success(t *testing.T) {
	input := validInput()
	assert.NoError(t, input.Validate())
}

func TestEventInput_Validate_InvalidEventID(t *testing.T) {
	input := validInput()
	input.EventID = "not-a-uuid"

	err := input.Validate()
	assert.Error(t, err)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "event_id", verr.Field)
}

func TestEventInput_Validate_InvalidTimestamp(t *testing.T) {
	input := validInput()
	input.OccurredAt = "01/08/2025 10:30"

	err := input.Validate()
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "occurred_at", verr.Field)
}

func TestEventInput_Validate_NonPositiveUserID(t *testing.T) {
	for _, userID := range []int64{0, -1} {
		input := validInput()
		input.UserID = userID

		err := input.Validate()
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "user_id", verr.Field)
	}
}

func TestEventInput_Validate_BlankEventType(t *testing.T) {
	for _, eventType := range []string{"", "   ", "\t\n"} {
		input := validInput()
		input.EventType = eventType

		err := input.Validate()
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "event_type", verr.Field)
	}
}

func TestEventInput_Event_TrimsEventType(t *testing.T) {
	input := validInput()
	input.EventType = "  page_view  "

	event, err := input.Event()
	assert.NoError(t, err)
	assert.Equal(t, "page_view", event.EventType)
}

func TestEventInput_Event_NormalizesNilProperties(t *testing.T) {
	input := validInput()
	input.Properties = nil

	event, err := input.Event()
	assert.NoError(t, err)
	assert.NotNil(t, event.Properties)
	assert.Empty(t, event.Properties)
}

func TestEventInput_Event_ZonelessTimestampAssumedUTC(t *testing.T) {
	input := validInput()
	input.OccurredAt = "2025-08-01T10:30:00"

	event, err := input.Event()
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 1, 10, 30, 0, 0, time.UTC), event.OccurredAt)
}

func TestEventInput_Event_ConvertsOffsetToUTC(t *testing.T) {
	input := validInput()
	input.OccurredAt = "2025-08-01T12:30:00+02:00"

	event, err := input.Event()
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 1, 10, 30, 0, 0, time.UTC), event.OccurredAt)
}

func TestValidationError_AtIndex(t *testing.T) {
	err := &ValidationError{Index: -1, Field: "user_id", Message: "must be a positive integer"}
	assert.Equal(t, "user_id must be a positive integer", err.Error())

	indexed := err.AtIndex(7)
	assert.Equal(t, "event 7: user_id must be a positive integer", indexed.Error())
}
