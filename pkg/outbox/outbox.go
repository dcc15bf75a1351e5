// Package outbox queues side effects of a chat turn so they run outside the
// request and can be observed and retried independently of it.
package outbox

import (
	"context"
	"sync"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	DefaultTopic = "assistant.side_effects"

	metadataEventType = "event_type"
)

// Publisher is what request code sees: enqueue and forget.
type Publisher interface {
	Enqueue(ctx context.Context, event events.Event)
}

// Outbox publishes events to a watermill topic. Failures are logged and
// swallowed so the caller's answer is never affected.
type Outbox struct {
	publisher message.Publisher
	topic     string
	logger    logger.ILogger
}

var _ Publisher = (*Outbox)(nil)

func New(publisher message.Publisher, topic string, log logger.ILogger) *Outbox {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Outbox{publisher: publisher, topic: topic, logger: log}
}

func (o *Outbox) Enqueue(ctx context.Context, event events.Event) {
	if o == nil || o.publisher == nil {
		return
	}

	payload, err := events.Marshal(event)
	if err != nil {
		o.logger.Error("OUTBOX", "Failed to encode event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataEventType, event.EventType())

	if err := o.publisher.Publish(o.topic, msg); err != nil {
		o.logger.Error("OUTBOX", "Failed to enqueue event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
	}
}

// Recorder keeps enqueued events in memory. Used by tests and by the
// console tool.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

var _ Publisher = (*Recorder)(nil)

func (r *Recorder) Enqueue(_ context.Context, event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}
