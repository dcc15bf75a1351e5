package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"commerce-assistant/pkg/store"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "assistant:"

// ContextRepository shares conversation contexts between service replicas.
// Each user keeps a set of its session keys so DeleteUser needs no SCAN.
type ContextRepository struct {
	client *goredis.Client
	ttl    time.Duration
}

var _ store.ContextStore = (*ContextRepository)(nil)

func NewContextRepository(client *goredis.Client, ttl time.Duration) *ContextRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ContextRepository{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return keyPrefix + "ctx:" + sessionID
}

func userKey(userID string) string {
	return keyPrefix + "user:" + userID + ":sessions"
}

func clearedKey(userID string) string {
	return keyPrefix + "user:" + userID + ":cleared"
}

func (r *ContextRepository) Get(ctx context.Context, sessionID string) (*store.ConversationContext, error) {
	val, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var cc store.ConversationContext
	if err := json.Unmarshal(val, &cc); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return &cc, nil
}

func (r *ContextRepository) Save(ctx context.Context, cc *store.ConversationContext) error {
	b, err := json.Marshal(cc)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(cc.SessionID), b, r.ttl)
	if cc.UserID != "" {
		pipe.SAdd(ctx, userKey(cc.UserID), cc.SessionID)
		pipe.Expire(ctx, userKey(cc.UserID), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *ContextRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (r *ContextRepository) DeleteUser(ctx context.Context, userID string) error {
	sessions, err := r.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis smembers: %w", err)
	}

	keys := make([]string, 0, len(sessions)+1)
	for _, s := range sessions {
		keys = append(keys, sessionKey(s))
	}
	keys = append(keys, userKey(userID))

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.Set(ctx, clearedKey(userID), time.Now().UnixNano(), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (r *ContextRepository) ClearedAt(ctx context.Context, userID string) (time.Time, error) {
	ns, err := r.client.Get(ctx, clearedKey(userID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis get: %w", err)
	}
	return time.Unix(0, ns), nil
}
