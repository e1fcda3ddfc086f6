package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ri "github.com/redis/go-redis/v9"

	"TourAdmin/storage/redis"
)

const draftPrefix = "draft"

// SessionStore 草稿会话存放在 Redis，过期即视为放弃
type SessionStore struct {
	ttl time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{ttl: ttl}
}

// Save 写入会话并刷新 TTL
func (s *SessionStore) Save(ctx context.Context, id string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return redis.Client().Set(ctx, redis.Key(draftPrefix, id), data, s.ttl).Err()
}

// Load 读取会话，不存在时返回 false
func (s *SessionStore) Load(ctx context.Context, id string, dest interface{}) (bool, error) {
	data, err := redis.Client().Get(ctx, redis.Key(draftPrefix, id)).Bytes()
	if err != nil {
		if errors.Is(err, ri.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return true, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return redis.Client().Del(ctx, redis.Key(draftPrefix, id)).Err()
}
