package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event, e.g. "source.ingested".
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher puts events on the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// envelope is the wire form. It carries the type and timestamp so consumers do
// not have to guess them from the subject.
type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(envelope{
		Type:       e.EventType(),
		OccurredAt: e.Timestamp(),
		Data:       e.Payload(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", e.EventType(), err)
	}
	return data, nil
}

func Decode(raw []byte) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if env.Type == "" {
		return BaseEvent{}, fmt.Errorf("event without type")
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}
