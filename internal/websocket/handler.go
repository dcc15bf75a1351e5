package websocket

import (
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/pkg/serverutils"
	"commerce-assistant/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type ChatSocketHandler struct {
	hub    *Hub
	chat   Responder
	logger logger.ILogger
}

func NewChatSocketHandler(hub *Hub, chat Responder, log logger.ILogger) *ChatSocketHandler {
	return &ChatSocketHandler{hub: hub, chat: chat, logger: log}
}

func (h *ChatSocketHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/chat", h.ServeWs)
}

// ServeWs authenticates the handshake and upgrades it. Browsers pass the
// token as a query param; other clients may use the Authorization header.
// Without a token the socket runs as a guest with its own session.
func (h *ChatSocketHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	userID, role := "", ""
	if tokenStr != "" {
		claims, err := serverutils.ParseToken(tokenStr)
		if err != nil {
			h.logger.Warn("ChatSocketHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
		}
		userID, _ = claims["user_id"].(string)
		role, _ = claims["role"].(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Token missing user_id"))
		}
	}
	if userID == "" {
		userID = store.GuestPrefix + uuid.NewString()
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ChatSocketHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
		ServeWs(h.hub, conn, userID, role, h.chat, h.logger)
		h.logger.Info("ChatSocketHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

// ServeWs runs one socket until it closes.
func ServeWs(hub *Hub, conn *websocket.Conn, userID, role string, chat Responder, log logger.ILogger) {
	client := NewClient(hub, conn, userID, role, chat, log)
	hub.Register(client)

	go client.writePump()
	client.readPump()
}
