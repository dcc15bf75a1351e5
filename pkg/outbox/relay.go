package outbox

import (
	"context"
	"sync"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// HandlerFunc processes one event. Returning an error asks for redelivery.
type HandlerFunc func(ctx context.Context, event events.Event) error

// Stats counts what the relay did, per handler.
type Stats struct {
	Handled int
	Retried int
	Dropped int
}

// Relay fans the outbox topic out to named handlers. Every handler gets its
// own subscription so a failing handler never replays the others.
type Relay struct {
	subscriber  message.Subscriber
	topic       string
	maxAttempts int
	logger      logger.ILogger

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	attempts map[string]int
	stats    map[string]*Stats
	wg       sync.WaitGroup
}

func NewRelay(subscriber message.Subscriber, topic string, maxAttempts int, log logger.ILogger) *Relay {
	if topic == "" {
		topic = DefaultTopic
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Relay{
		subscriber:  subscriber,
		topic:       topic,
		maxAttempts: maxAttempts,
		logger:      log,
		handlers:    make(map[string]HandlerFunc),
		attempts:    make(map[string]int),
		stats:       make(map[string]*Stats),
	}
}

// Handle registers a handler. Call before Run.
func (r *Relay) Handle(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
	r.stats[name] = &Stats{}
}

// Run subscribes every handler and returns once the subscriptions exist.
// Consumption continues until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	r.mu.Lock()
	handlers := make(map[string]HandlerFunc, len(r.handlers))
	for k, v := range r.handlers {
		handlers[k] = v
	}
	r.mu.Unlock()

	for name, fn := range handlers {
		messages, err := r.subscriber.Subscribe(ctx, r.topic)
		if err != nil {
			return err
		}
		r.wg.Add(1)
		go func(name string, fn HandlerFunc) {
			defer r.wg.Done()
			for msg := range messages {
				r.process(ctx, name, fn, msg)
			}
		}(name, fn)
	}
	return nil
}

// Wait blocks until every subscription channel is closed.
func (r *Relay) Wait() {
	r.wg.Wait()
}

// Stats returns a snapshot for one handler.
func (r *Relay) Stats(name string) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stats[name]; ok {
		return *s
	}
	return Stats{}
}

func (r *Relay) process(ctx context.Context, name string, fn HandlerFunc, msg *message.Message) {
	evt, err := events.Unmarshal(msg.Payload)
	if err != nil {
		r.logger.Error("OUTBOX", "Dropping undecodable message", map[string]interface{}{"handler": name, "uuid": msg.UUID, "error": err.Error()})
		r.bump(name, func(s *Stats) { s.Dropped++ })
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	key := name + "/" + msg.UUID
	if err := fn(ctx, evt); err != nil {
		r.mu.Lock()
		r.attempts[key]++
		attempt := r.attempts[key]
		r.mu.Unlock()

		if attempt < r.maxAttempts {
			r.logger.Warn("OUTBOX", "Handler failed, retrying", map[string]interface{}{"handler": name, "type": evt.Type, "attempt": attempt, "error": err.Error()})
			r.bump(name, func(s *Stats) { s.Retried++ })
			msg.Nack()
			return
		}

		r.logger.Error("OUTBOX", "Handler failed, giving up", map[string]interface{}{"handler": name, "type": evt.Type, "attempt": attempt, "error": err.Error()})
		r.forget(key)
		r.bump(name, func(s *Stats) { s.Dropped++ })
		msg.Ack()
		return
	}

	r.forget(key)
	r.bump(name, func(s *Stats) { s.Handled++ })
	msg.Ack()
}

func (r *Relay) bump(name string, f func(*Stats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stats[name]; ok {
		f(s)
	}
}

func (r *Relay) forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, key)
}
