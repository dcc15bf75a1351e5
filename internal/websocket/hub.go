package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"commerce-assistant/internal/dto"
	"commerce-assistant/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries answer frames between instances.
const ClusterChannel = "assistant_socket_events"

type clusterEnvelope struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

// Hub tracks open chat sockets per shopper. A shopper signed in on several
// devices receives every answer on all of them, across instances when Redis
// is configured.
type Hub struct {
	id string

	// shopper id -> open sockets
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	rdb    *redis.Client
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		id:         uuid.NewString(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.UserID]
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
	}
}

// ConnectedClients reports the local sockets open for a shopper.
func (h *Hub) ConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Deliver sends frame to every socket of userID, here and on other instances.
func (h *Hub) Deliver(userID string, frame dto.ChatSocketMessage) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliverLocal(userID, data)

	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(clusterEnvelope{Origin: h.id, TargetUserID: userID, Message: data})
	if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Cluster publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// Reply sends frame to one socket only.
func (h *Hub) Reply(client *Client, frame dto.ChatSocketMessage) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients[client.UserID] {
		if c == client {
			h.push(c, data)
			return
		}
	}
}

func (h *Hub) deliverLocal(userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[userID] {
		h.push(client, data)
	}
}

// push must run under the read lock so Send cannot be closed concurrently.
func (h *Hub) push(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"user_id": client.UserID})
		go h.Unregister(client)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env clusterEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("Hub", "Cluster message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if env.Origin == h.id {
				continue
			}
			h.deliverLocal(env.TargetUserID, env.Message)
		}
	}
}
