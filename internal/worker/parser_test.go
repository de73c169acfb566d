package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
)

func TestMsgpackEventParser_Parse_Success(t *testing.T) {
	parser := NewMsgpackEventParser()

	body, err := msgpack.Marshal(&domain.EventInput{
		EventID:    "a2c91b8e-3f41-4c9d-9d12-6a0f4bb1a001",
		OccurredAt: "2025-08-01T10:30:00Z",
		UserID:     42,
		EventType:  "page_view",
		Properties: map[string]any{"path": "/home"},
	})
	assert.NoError(t, err)

	event, err := parser.Parse(body)
	assert.NoError(t, err)
	assert.Equal(t, "a2c91b8e-3f41-4c9d-9d12-6a0f4bb1a001", event.EventID.String())
	assert.Equal(t, int64(42), event.UserID)
	assert.Equal(t, "page_view", event.EventType)
	assert.Equal(t, time.Date(2025, 8, 1, 10, 30, 0, 0, time.UTC), event.OccurredAt)
	assert.Equal(t, "/home", event.Properties["path"])
}

func TestMsgpackEventParser_Parse_Garbage(t *testing.T) {
	parser := NewMsgpackEventParser()

	_, err := parser.Parse([]byte("not msgpack at all"))
	assert.Error(t, err)
}

func TestMsgpackEventParser_Parse_InvalidEvent(t *testing.T) {
	parser := NewMsgpackEventParser()

	// Well-formed msgpack, but fails event validation.
	body, err := msgpack.Marshal(&domain.EventInput{
		EventID:    "a2c91b8e-3f41-4c9d-9d12-6a0f4bb1a001",
		OccurredAt: "2025-08-01T10:30:00Z",
		UserID:     0,
		EventType:  "page_view",
	})
	assert.NoError(t, err)

	_, err = parser.Parse(body)
	assert.Error(t, err)
}
