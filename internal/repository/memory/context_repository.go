package memory

import (
	"context"
	"encoding/json"
	"time"

	"commerce-assistant/pkg/store"

	"github.com/patrickmn/go-cache"
)

// ContextRepository keeps conversation contexts in process memory. Contexts
// are stored serialized so callers never share a live pointer.
type ContextRepository struct {
	cache   *cache.Cache
	cleared *cache.Cache
	now     func() time.Time
}

var _ store.ContextStore = (*ContextRepository)(nil)

func NewContextRepository(ttl time.Duration) *ContextRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ContextRepository{
		cache:   cache.New(ttl, 10*time.Minute),
		cleared: cache.New(ttl, 10*time.Minute),
		now:     time.Now,
	}
}

func (r *ContextRepository) Get(ctx context.Context, sessionID string) (*store.ConversationContext, error) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, nil
	}
	var cc store.ConversationContext
	if err := json.Unmarshal(x.([]byte), &cc); err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r *ContextRepository) Save(ctx context.Context, cc *store.ConversationContext) error {
	b, err := json.Marshal(cc)
	if err != nil {
		return err
	}
	r.cache.Set(cc.SessionID, b, cache.DefaultExpiration)
	return nil
}

func (r *ContextRepository) Delete(ctx context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

func (r *ContextRepository) DeleteUser(ctx context.Context, userID string) error {
	r.cleared.Set(userID, r.now(), cache.DefaultExpiration)
	for key, item := range r.cache.Items() {
		var owner struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(item.Object.([]byte), &owner); err != nil {
			continue
		}
		if owner.UserID == userID {
			r.cache.Delete(key)
		}
	}
	return nil
}

func (r *ContextRepository) ClearedAt(ctx context.Context, userID string) (time.Time, error) {
	if x, found := r.cleared.Get(userID); found {
		return x.(time.Time), nil
	}
	return time.Time{}, nil
}
