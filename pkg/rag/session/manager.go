// Package session keeps the sticky entities of a conversation: the product
// being discussed, accumulated measurements and the turn history.
package session

import (
	"context"
	"time"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/rag/search"
	"commerce-assistant/pkg/store"
)

// DefaultHistoryLimit caps the turns kept per session.
const DefaultHistoryLimit = 10

// EntityResolver is the part of the entity resolver the manager needs.
type EntityResolver interface {
	ResolveExplicit(ctx context.Context, query string) ([]search.Candidate, error)
}

type Source string

const (
	SourceNone      Source = ""
	SourceExplicit  Source = "explicit"
	SourceSuggested Source = "suggested"
	SourceBold      Source = "bold"
	SourceCurrent   Source = "current"
)

// ResolvedEntities is what the manager inferred for the current message.
type ResolvedEntities struct {
	Product      *store.ProductRef
	Candidate    *search.Candidate // set when the product was resolved this turn
	Source       Source
	Measurements store.Measurements // measurements after merging this message
	Extracted    store.Measurements // measurements found in this message only
}

// Manager loads, resolves against and updates conversation contexts.
type Manager struct {
	store    store.ContextStore
	resolver EntityResolver
	limit    int
	now      func() time.Time
	log      logger.ILogger
}

func NewManager(contexts store.ContextStore, resolver EntityResolver, historyLimit int, log logger.ILogger) *Manager {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Manager{
		store:    contexts,
		resolver: resolver,
		limit:    historyLimit,
		now:      time.Now,
		log:      log,
	}
}

// WithClock replaces the time source, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Key scopes a client supplied session id to its owner, so two users
// sending the same id never share a context.
func Key(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// Load returns the stored context of a user's session, or a fresh one.
// A stored context owned by someone else is never returned.
func (m *Manager) Load(ctx context.Context, sessionID, userID string) (*store.ConversationContext, error) {
	key := Key(userID, sessionID)
	cc, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if cc == nil || cc.UserID != userID {
		cc = store.NewConversationContext(key, userID)
	}
	return cc, nil
}

// ResolveReferents works out which product the message is about and what
// measurements it adds. It never fails on a lookup error; the product is
// left unknown instead.
func (m *Manager) ResolveReferents(ctx context.Context, message string, cc *store.ConversationContext) (ResolvedEntities, error) {
	if err := ctx.Err(); err != nil {
		return ResolvedEntities{}, err
	}

	var out ResolvedEntities
	out.Extracted = ExtractMeasurements(message)
	out.Measurements = cc.Entities.UserMeasurements
	out.Measurements.Merge(out.Extracted)

	if c := m.explicit(ctx, message); c != nil {
		ref := c.Ref()
		out.Product = &ref
		out.Candidate = c
		out.Source = SourceExplicit
		return out, nil
	}

	if !IsReferring(message) {
		return out, nil
	}

	if ref, src := m.fromAssistantTurns(ctx, cc); ref != nil {
		out.Product = ref
		out.Source = src
		return out, nil
	}

	if cc.Entities.CurrentProduct != nil {
		ref := *cc.Entities.CurrentProduct
		out.Product = &ref
		out.Source = SourceCurrent
	}
	return out, nil
}

func (m *Manager) explicit(ctx context.Context, message string) *search.Candidate {
	if m.resolver == nil {
		return nil
	}
	candidates, err := m.resolver.ResolveExplicit(ctx, message)
	if err != nil {
		m.log.Warn("ContextManager", "explicit resolution failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if len(candidates) == 0 || !candidates[0].Tier.Sticky() || candidates[0].Product == nil {
		return nil
	}
	return &candidates[0]
}

// fromAssistantTurns scans recent assistant turns newest first and stops at
// the first turn that names a product. Within a turn the product it was
// about wins over its suggestions, which win over bold markers in the text.
func (m *Manager) fromAssistantTurns(ctx context.Context, cc *store.ConversationContext) (*store.ProductRef, Source) {
	scanned := 0
	for i := len(cc.Turns) - 1; i >= 0 && scanned < ReferentLookback; i-- {
		t := cc.Turns[i]
		if t.Role != store.RoleAssistant {
			continue
		}
		scanned++

		if t.Product != nil {
			ref := *t.Product
			return &ref, SourceSuggested
		}
		if len(t.SuggestedProducts) > 0 {
			ref := t.SuggestedProducts[0]
			return &ref, SourceSuggested
		}
		if m.resolver == nil {
			continue
		}
		for _, name := range BoldNames(t.Text) {
			if c := m.explicit(ctx, name); c != nil {
				ref := c.Ref()
				return &ref, SourceBold
			}
		}
	}
	return nil, SourceNone
}

// TurnRecord is one completed exchange.
type TurnRecord struct {
	UserText          string
	Answer            string
	Intent            string
	SuggestedProducts []store.ProductRef
	// Product is the product the turn was about, with the tier it was
	// resolved at.
	Product      *store.ProductRef
	Measurements store.Measurements
}

// AppendTurn records the exchange on cc. The current product only moves to
// a product resolved at the exact or fuzzy tier.
func (m *Manager) AppendTurn(cc *store.ConversationContext, rec TurnRecord) {
	now := m.now()
	reply := store.Turn{Role: store.RoleAssistant, Text: rec.Answer, Timestamp: now, Intent: rec.Intent, SuggestedProducts: rec.SuggestedProducts}
	if rec.Product != nil {
		ref := *rec.Product
		reply.Product = &ref
	}
	cc.AppendTurns(m.limit,
		store.Turn{Role: store.RoleUser, Text: rec.UserText, Timestamp: now, Intent: rec.Intent},
		reply,
	)

	if rec.Product != nil && search.Tier(rec.Product.Tier).Sticky() {
		ref := *rec.Product
		cc.Entities.CurrentProduct = &ref
	}
	cc.Entities.UserMeasurements.Merge(rec.Measurements)
	if rec.Intent != "" {
		cc.Entities.Topic = rec.Intent
	}
	cc.UpdatedAt = now
}

// Save persists cc.
func (m *Manager) Save(ctx context.Context, cc *store.ConversationContext) error {
	return m.store.Save(ctx, cc)
}

// Clear drops every session of a user.
func (m *Manager) Clear(ctx context.Context, userID string) error {
	return m.store.DeleteUser(ctx, userID)
}
