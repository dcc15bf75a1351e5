// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"commerce-assistant/internal/metrics"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/unitofwork"
	"commerce-assistant/pkg/events"
	"commerce-assistant/pkg/outbox"
	"commerce-assistant/pkg/rag/intent"

	"github.com/google/uuid"
)

// Relay handler names.
const (
	HandlerChatLog   = "chat_log"
	HandlerTagging   = "behavior_tags"
	HandlerForwarder = "nats_forward"
)

// intentTags maps chat intents to the behavioral tag they earn a customer.
var intentTags = map[string]string{
	string(intent.SizeRecommendation): "needs:size-help",
	string(intent.ProductAdvice):      "needs:consultation",
	string(intent.StyleMatching):      "needs:styling-advice",
}

// EventForwarder publishes events to an external bus.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

// ClearLog tells when a user last cleared their conversation.
type ClearLog interface {
	ClearedAt(ctx context.Context, userID string) (time.Time, error)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService runs the side effects of chat turns off the request path.
type consumerService struct {
	relay      *outbox.Relay
	uowFactory unitofwork.RepositoryFactory
	clears     ClearLog
	forwarder  EventForwarder
	logger     logger.ILogger
}

func NewConsumerService(
	relay *outbox.Relay,
	uowFactory unitofwork.RepositoryFactory,
	clears ClearLog,
	forwarder EventForwarder,
	log logger.ILogger,
) IConsumerService {
	cs := &consumerService{
		relay:      relay,
		uowFactory: uowFactory,
		clears:     clears,
		forwarder:  forwarder,
		logger:     log,
	}
	relay.Handle(HandlerChatLog, cs.persistChatLog)
	relay.Handle(HandlerTagging, cs.tagCustomer)
	if forwarder != nil {
		relay.Handle(HandlerForwarder, cs.forward)
	}
	return cs
}

func (cs *consumerService) Consume(ctx context.Context) error {
	return cs.relay.Run(ctx)
}

func (cs *consumerService) persistChatLog(ctx context.Context, e events.Event) error {
	if e.EventType() != events.TypeChatTurnCompleted {
		return nil
	}
	evt, ok := e.(events.BaseEvent)
	if !ok {
		return nil
	}

	cleared, err := cs.clearedBefore(ctx, evt)
	if err != nil {
		metrics.SideEffectsTotal.WithLabelValues(HandlerChatLog, metrics.OutcomeError).Inc()
		return fmt.Errorf("persist chat log: %w", err)
	}
	if cleared {
		cs.logger.Debug("ConsumerService", "turn finished before the user cleared, dropping chat log", map[string]interface{}{
			"user_id":    evt.String("user_id"),
			"session_id": evt.String("session_id"),
		})
		metrics.SideEffectsTotal.WithLabelValues(HandlerChatLog, metrics.OutcomeSkipped).Inc()
		return nil
	}

	logs := chatLogsFromEvent(evt)
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatLogRepository().CreateBulk(ctx, logs); err != nil {
		metrics.SideEffectsTotal.WithLabelValues(HandlerChatLog, metrics.OutcomeError).Inc()
		return fmt.Errorf("persist chat log: %w", err)
	}
	metrics.SideEffectsTotal.WithLabelValues(HandlerChatLog, metrics.OutcomeOK).Inc()
	return nil
}

// clearedBefore reports whether the user cleared their conversation at or
// after the turn finished. Such a turn must not reappear in the history.
func (cs *consumerService) clearedBefore(ctx context.Context, evt events.BaseEvent) (bool, error) {
	if cs.clears == nil {
		return false, nil
	}
	at, err := cs.clears.ClearedAt(ctx, evt.String("user_id"))
	if err != nil {
		return false, err
	}
	return !at.IsZero() && !evt.OccurredAt.After(at), nil
}

// tagCustomer records what a known customer asked for help with. Guests and
// intents without a tag are skipped.
func (cs *consumerService) tagCustomer(ctx context.Context, e events.Event) error {
	if e.EventType() != events.TypeChatTurnCompleted {
		return nil
	}
	evt, ok := e.(events.BaseEvent)
	if !ok {
		return nil
	}
	if guest, _ := evt.Data["guest"].(bool); guest {
		return nil
	}
	tag, ok := intentTags[evt.String("intent")]
	if !ok {
		return nil
	}
	userID, err := uuid.Parse(evt.String("user_id"))
	if err != nil {
		return nil
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UserRepository().AddTag(ctx, userID, tag); err != nil {
		metrics.SideEffectsTotal.WithLabelValues(HandlerTagging, metrics.OutcomeError).Inc()
		return fmt.Errorf("tag customer %s: %w", userID, err)
	}
	cs.logger.Debug("ConsumerService", "customer tagged", map[string]interface{}{"user_id": userID, "tag": tag})
	metrics.SideEffectsTotal.WithLabelValues(HandlerTagging, metrics.OutcomeOK).Inc()
	return nil
}

func (cs *consumerService) forward(ctx context.Context, e events.Event) error {
	if err := cs.forwarder.Publish(ctx, e); err != nil {
		metrics.SideEffectsTotal.WithLabelValues(HandlerForwarder, metrics.OutcomeError).Inc()
		return err
	}
	metrics.SideEffectsTotal.WithLabelValues(HandlerForwarder, metrics.OutcomeOK).Inc()
	return nil
}
