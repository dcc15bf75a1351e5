package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatLog is one persisted conversation message. UserId is a string because
// guests chat under generated "guest_" ids.
type ChatLog struct {
	Id        uuid.UUID
	UserId    string
	SessionId string
	Role      string
	Content   string
	Intent    string
	Metadata  map[string]interface{}
	CreatedAt time.Time
}
