package nats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName    = "ASSISTANT"
	SubjectPrefix = "assistant"

	// Relay redeliveries of one event land well inside this window.
	duplicateWindow = 10 * time.Minute
)

// Publisher forwards outbox events to a JetStream stream for downstream
// consumers such as CRM sync.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logger.ILogger
}

func NewPublisher(url string, log logger.ILogger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("commerce-assistant"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NatsPublisher", "disconnected", map[string]interface{}{"error": err.Error()})
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{SubjectPrefix + ".>"},
		Storage:    jetstream.FileStorage,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: duplicateWindow,
	})
	if err != nil {
		log.Warn("NatsPublisher", "failed to ensure stream", map[string]interface{}{"stream": StreamName, "error": err.Error()})
	}

	return &Publisher{nc: nc, js: js, logger: log}, nil
}

// Subject maps an event type to its subject, e.g. assistant.chat_turn_completed.
func Subject(eventType string) string {
	return SubjectPrefix + "." + strings.ToLower(eventType)
}

// MsgID identifies one event across relay redeliveries so JetStream drops
// the duplicates.
func MsgID(e events.Event) string {
	var user, session string
	if v, ok := e.Payload()["user_id"].(string); ok {
		user = v
	}
	if v, ok := e.Payload()["session_id"].(string); ok {
		session = v
	}
	return fmt.Sprintf("%s:%s:%s:%d", e.EventType(), user, session, e.Timestamp().UnixNano())
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := events.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := Subject(event.EventType())
	ack, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(MsgID(event)))
	if err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	if ack.Duplicate {
		p.logger.Debug("NatsPublisher", "duplicate event dropped by stream", map[string]interface{}{"subject": subject})
	}
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
	}
}
