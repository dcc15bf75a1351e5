package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"commerce-assistant/internal/dto"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/pkg/serverutils"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Room for a 5000-character message in multi-byte UTF-8 plus history.
	maxMessageSize = 64 * 1024

	FrameChat   = "chat"
	FrameAnswer = "answer"
	FrameError  = "error"
)

// Responder answers one chat turn.
type Responder interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// UserID is the token subject, or a per-connection guest id.
	UserID string
	Role   string

	// Buffered channel of outbound messages.
	Send chan []byte

	chat   Responder
	logger logger.ILogger
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, role string, chat Responder, log logger.ILogger) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Role:   role,
		Send:   make(chan []byte, 256),
		chat:   chat,
		logger: log,
	}
}

// HandleFrame answers one inbound frame. Answers go to every socket of the
// shopper, errors only to this one.
func (c *Client) HandleFrame(ctx context.Context, raw []byte) {
	var frame dto.ChatSocketMessage
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.Hub.Reply(c, dto.ChatSocketMessage{Type: FrameError, Error: "Invalid frame"})
		return
	}
	if frame.Type != FrameChat || frame.Payload == nil {
		c.Hub.Reply(c, dto.ChatSocketMessage{Type: FrameError, Error: "Expected a chat frame with a payload"})
		return
	}

	req := frame.Payload
	req.UserID = c.UserID
	req.Role = c.Role

	res, err := c.chat.Chat(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		_, msg := serverutils.StatusFor(err)
		c.logger.Warn("Client", "Chat turn failed", map[string]interface{}{"user_id": c.UserID, "error": err.Error()})
		c.Hub.Reply(c, dto.ChatSocketMessage{Type: FrameError, Error: msg})
		return
	}
	c.Hub.Deliver(c.UserID, dto.ChatSocketMessage{Type: FrameAnswer, Answer: res})
}

// readPump reads frames until the connection drops. Turns run in their own
// goroutine so pongs keep being read during slow answers.
func (c *Client) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Client", "Unexpected close", map[string]interface{}{"user_id": c.UserID, "error": err.Error()})
			}
			return
		}
		go c.HandleFrame(ctx, raw)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One frame per message; batching would break JSON framing.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Client", "Ping failed", map[string]interface{}{"user_id": c.UserID, "error": err.Error()})
				return
			}
		}
	}
}
