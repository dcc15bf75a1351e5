package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatRequest struct {
	// UserID and Role come from the token, never from the body.
	UserID string `json:"-"`
	Role   string `json:"-"`

	SessionID           string               `json:"session_id,omitempty" validate:"omitempty,max=128"`
	Message             string               `json:"message" validate:"required,max=5000"`
	ConversationHistory []ChatHistoryMessage `json:"conversation_history,omitempty" validate:"max=20,dive"`
}

// ChatHistoryMessage is a prior turn supplied by the client for a session
// the server does not know yet.
type ChatHistoryMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type SuggestedProductDTO struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

type SuggestedActionDTO struct {
	Type      string `json:"type"`
	ProductId string `json:"product_id,omitempty"`
	VariantId string `json:"variant_id,omitempty"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

type AttachmentDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Url  string `json:"url"`
}

type ChatResponse struct {
	Answer               string                 `json:"answer"`
	Sources              []string               `json:"sources"`
	SuggestedProducts    []SuggestedProductDTO  `json:"suggested_products"`
	SuggestedAction      *SuggestedActionDTO    `json:"suggested_action,omitempty"`
	Intent               string                 `json:"intent"`
	Type                 string                 `json:"type,omitempty"`
	SessionId            string                 `json:"session_id"`
	Attachment           *AttachmentDTO         `json:"attachment,omitempty"`
	RequiresMeasurements bool                   `json:"requires_measurements,omitempty"`
	MissingFields        []string               `json:"missing_fields,omitempty"`
	RecommendedSize      string                 `json:"recommended_size,omitempty"`
	Data                 map[string]interface{} `json:"data,omitempty"`
	Timestamp            time.Time              `json:"timestamp"`
}

type ChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	SessionId string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHealthResponse struct {
	Status              string  `json:"status"`
	Version             string  `json:"version"`
	TotalRequests       int64   `json:"total_requests"`
	SuccessfulRequests  int64   `json:"successful_requests"`
	FailedRequests      int64   `json:"failed_requests"`
	SuccessRate         float64 `json:"success_rate"`
	AverageResponseTime float64 `json:"average_response_time_ms"`
}

// ChatSocketMessage is one frame on the chat websocket.
type ChatSocketMessage struct {
	Type    string        `json:"type"` // "chat" | "answer" | "error"
	Payload *ChatRequest  `json:"payload,omitempty"`
	Answer  *ChatResponse `json:"answer,omitempty"`
	Error   string        `json:"error,omitempty"`
}
