package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// TypeChatTurnCompleted is emitted once per answered chat turn.
	TypeChatTurnCompleted = "CHAT_TURN_COMPLETED"
	// TypeCartActionSuggested is emitted when a turn proposes an add-to-cart.
	TypeCartActionSuggested = "CART_ACTION_SUGGESTED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_TURN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
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

// String returns the payload value under key, or "" when absent.
func (e BaseEvent) String(key string) string {
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}

type envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Marshal encodes an event with its type and timestamp.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(envelope{Type: e.EventType(), Data: e.Payload(), OccurredAt: e.Timestamp()})
}

// Unmarshal decodes bytes produced by Marshal.
func Unmarshal(b []byte) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if env.Type == "" {
		return BaseEvent{}, fmt.Errorf("decode event: missing type")
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}
