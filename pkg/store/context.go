package store

import (
	"context"
	"strings"
	"time"
)

// GuestPrefix marks generated ids of anonymous shoppers.
const GuestPrefix = "guest_"

// IsGuest reports whether the user id is anonymous or a generated guest id.
func IsGuest(userID string) bool {
	return userID == "" || userID == "anonymous" || strings.HasPrefix(userID, GuestPrefix)
}

// ProductRef is a weak reference to a catalog product as remembered by the
// conversation. Tier records how confidently it was resolved.
type ProductRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Tier     string `json:"tier,omitempty"`
}

type Turn struct {
	Role              string       `json:"role"` // "user" | "assistant"
	Text              string       `json:"text"`
	Timestamp         time.Time    `json:"timestamp"`
	Intent            string       `json:"intent,omitempty"`
	SuggestedProducts []ProductRef `json:"suggested_products,omitempty"`
	// Product is what an assistant turn was about, suggested or not.
	Product *ProductRef `json:"product,omitempty"`
}

// Measurements are accumulated body measurements. Zero means unknown.
type Measurements struct {
	Height    float64 `json:"height,omitempty"` // cm
	Weight    float64 `json:"weight,omitempty"` // kg
	Chest     float64 `json:"chest,omitempty"`
	Waist     float64 `json:"waist,omitempty"`
	Shoulder  float64 `json:"shoulder,omitempty"`
	UsualSize string  `json:"usual_size,omitempty"`
}

// Merge overlays every known field of other onto m.
func (m *Measurements) Merge(other Measurements) {
	if other.Height > 0 {
		m.Height = other.Height
	}
	if other.Weight > 0 {
		m.Weight = other.Weight
	}
	if other.Chest > 0 {
		m.Chest = other.Chest
	}
	if other.Waist > 0 {
		m.Waist = other.Waist
	}
	if other.Shoulder > 0 {
		m.Shoulder = other.Shoulder
	}
	if other.UsualSize != "" {
		m.UsualSize = other.UsualSize
	}
}

// Missing lists the required fields (height, weight) that are still unknown.
func (m Measurements) Missing() []string {
	var missing []string
	if m.Height <= 0 {
		missing = append(missing, "height")
	}
	if m.Weight <= 0 {
		missing = append(missing, "weight")
	}
	return missing
}

func (m Measurements) IsEmpty() bool {
	return m == Measurements{}
}

type Preferences struct {
	Colors []string `json:"colors,omitempty"`
	Styles []string `json:"styles,omitempty"`
}

type Entities struct {
	CurrentProduct   *ProductRef  `json:"current_product,omitempty"`
	UserMeasurements Measurements `json:"user_measurements"`
	Preferences      Preferences  `json:"preferences"`
	Topic            string       `json:"topic,omitempty"`
}

type CustomerProfile struct {
	Role  string          `json:"role,omitempty"`
	Type  string          `json:"type,omitempty"`
	Tags  []string        `json:"tags,omitempty"`
	Flags map[string]bool `json:"flags,omitempty"`
}

// ConversationContext is the per-session memory read by every handler.
type ConversationContext struct {
	SessionID       string          `json:"session_id"`
	UserID          string          `json:"user_id"`
	Turns           []Turn          `json:"turns"`
	Entities        Entities        `json:"entities"`
	CustomerProfile CustomerProfile `json:"customer_profile"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func NewConversationContext(sessionID, userID string) *ConversationContext {
	return &ConversationContext{
		SessionID: sessionID,
		UserID:    userID,
	}
}

// RecentTurns returns at most n of the latest turns, oldest first.
func (c *ConversationContext) RecentTurns(n int) []Turn {
	if n <= 0 || len(c.Turns) <= n {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}

// LastUserTurn returns the most recent user turn, or nil.
func (c *ConversationContext) LastUserTurn() *Turn {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == RoleUser {
			return &c.Turns[i]
		}
	}
	return nil
}

// AppendTurns adds turns and drops the oldest beyond limit.
func (c *ConversationContext) AppendTurns(limit int, turns ...Turn) {
	c.Turns = append(c.Turns, turns...)
	if limit > 0 && len(c.Turns) > limit {
		c.Turns = append([]Turn(nil), c.Turns[len(c.Turns)-limit:]...)
	}
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContextStore persists conversation contexts keyed by session id. Get
// returns nil, nil for an unknown session.
type ContextStore interface {
	Get(ctx context.Context, sessionID string) (*ConversationContext, error)
	Save(ctx context.Context, cc *ConversationContext) error
	Delete(ctx context.Context, sessionID string) error
	// DeleteUser drops every session owned by userID and remembers when.
	DeleteUser(ctx context.Context, userID string) error
	// ClearedAt is the time of the last DeleteUser for userID, zero if none
	// is remembered.
	ClearedAt(ctx context.Context, userID string) (time.Time, error)
}
