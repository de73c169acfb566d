package worker

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
)

// MsgpackEventParser implements MessageParser for msgpack-encoded event
// messages. Decoded payloads are re-validated against the same rules as the
// ingestion boundary, so a malformed publish cannot reach the store.
type MsgpackEventParser struct{}

// NewMsgpackEventParser creates a new msgpack event parser
func NewMsgpackEventParser() *MsgpackEventParser {
	return &MsgpackEventParser{}
}

// Parse decodes a msgpack message body into a validated Event
func (p *MsgpackEventParser) Parse(body []byte) (*domain.Event, error) {
	var input domain.EventInput
	if err := msgpack.Unmarshal(body, &input); err != nil {
		return nil, fmt.Errorf("failed to decode message body: %w", err)
	}

	event, err := input.Event()
	if err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}

	return event, nil
}
