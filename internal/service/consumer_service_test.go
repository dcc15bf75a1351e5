package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/memory"
	"commerce-assistant/pkg/events"
	"commerce-assistant/pkg/outbox"
	"commerce-assistant/pkg/rag/intent"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingForwarder struct {
	mu    sync.Mutex
	types []string
}

func (f *recordingForwarder) Publish(_ context.Context, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, e.EventType())
	return nil
}

func (f *recordingForwarder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.types)
}

func completedTurn(userID, it string) events.Event {
	return events.BaseEvent{
		Type: events.TypeChatTurnCompleted,
		Data: map[string]interface{}{
			"user_id":            userID,
			"session_id":         "s-" + userID,
			"intent":             it,
			"message":            "size nào vừa?",
			"answer":             "Bạn chọn size L nhé.",
			"suggested_products": []interface{}{"p-1"},
			"guest":              false,
		},
		OccurredAt: time.Now(),
	}
}

func TestConsumerPersistsTagsAndForwards(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	defer ps.Close()

	log := logger.NewNopLogger()
	uow := newFakeUoW()
	forwarder := &recordingForwarder{}
	relay := outbox.NewRelay(ps, "", 3, log)
	consumer := NewConsumerService(relay, uow, nil, forwarder, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	customer := uuid.New()
	pub := outbox.New(ps, "", log)
	pub.Enqueue(ctx, completedTurn(customer.String(), string(intent.SizeRecommendation)))

	require.Eventually(t, func() bool {
		return relay.Stats(HandlerChatLog).Handled == 1 &&
			relay.Stats(HandlerTagging).Handled == 1 &&
			forwarder.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	logs, err := uow.chatLogs.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Bạn chọn size L nhé.", logs[0].Content)
	assert.Equal(t, string(intent.SizeRecommendation), logs[0].Intent)
	assert.Equal(t, []string{"needs:size-help"}, uow.users.tagsOf(customer))
}

func TestConsumerSkipsGuestsAndUntaggedIntents(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	defer ps.Close()

	log := logger.NewNopLogger()
	uow := newFakeUoW()
	relay := outbox.NewRelay(ps, "", 3, log)
	consumer := NewConsumerService(relay, uow, nil, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	guest := completedTurn("guest_abc", string(intent.SizeRecommendation)).(events.BaseEvent)
	guest.Data["guest"] = true
	customer := uuid.New()

	pub := outbox.New(ps, "", log)
	pub.Enqueue(ctx, guest)
	pub.Enqueue(ctx, completedTurn(customer.String(), string(intent.OrderLookup)))

	require.Eventually(t, func() bool {
		return relay.Stats(HandlerTagging).Handled == 2 && relay.Stats(HandlerChatLog).Handled == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, uow.users.tagsOf(customer))
	logs, err := uow.chatLogs.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 4)
	assert.Equal(t, outbox.Stats{}, relay.Stats(HandlerForwarder))
}

func TestConsumerDropsTurnsFinishedBeforeClear(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	defer ps.Close()

	log := logger.NewNopLogger()
	uow := newFakeUoW()
	contexts := memory.NewContextRepository(time.Hour)
	relay := outbox.NewRelay(ps, "", 3, log)
	consumer := NewConsumerService(relay, uow, contexts, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	customer := uuid.New().String()
	late := completedTurn(customer, string(intent.General)).(events.BaseEvent)
	late.OccurredAt = time.Now().Add(-time.Second)
	require.NoError(t, contexts.DeleteUser(ctx, customer))
	fresh := completedTurn(customer, string(intent.General)).(events.BaseEvent)
	fresh.OccurredAt = time.Now().Add(time.Second)

	require.NoError(t, consumer.Consume(ctx))
	pub := outbox.New(ps, "", log)
	pub.Enqueue(ctx, late)
	pub.Enqueue(ctx, fresh)

	require.Eventually(t, func() bool {
		return relay.Stats(HandlerChatLog).Handled == 2
	}, 2*time.Second, 10*time.Millisecond)

	logs, err := uow.chatLogs.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.True(t, l.CreatedAt.After(late.OccurredAt.Add(time.Millisecond)))
	}
}

func TestChatLogsFromEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e := completedTurn("user-1", string(intent.ProductAdvice)).(events.BaseEvent)
	e.OccurredAt = at

	logs := chatLogsFromEvent(e)
	require.Len(t, logs, 2)
	assert.Equal(t, "user", logs[0].Role)
	assert.Equal(t, "size nào vừa?", logs[0].Content)
	assert.Equal(t, "assistant", logs[1].Role)
	assert.True(t, logs[1].CreatedAt.After(logs[0].CreatedAt))
	assert.Equal(t, []interface{}{"p-1"}, logs[1].Metadata["suggested_products"])
}
