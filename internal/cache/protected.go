package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	ri "github.com/redis/go-redis/v9"

	"TourAdmin/storage/redis"
)

const (
	// 空值缓存标识
	emptyValueFlag = "__EMPTY__"
	// 空值缓存TTL，较短时间避免长期占用
	emptyValueTTL = 1 * time.Minute
	// TTL 随机抖动上限，防止同时过期
	ttlJitterMax = 30 * time.Second
)

// ProtectedCache 带空值保护和 TTL 抖动的 JSON 缓存
type ProtectedCache struct {
	keyPrefix string
	ttl       time.Duration
	emptyTTL  time.Duration
}

// NewProtectedCache 创建受保护的缓存实例
func NewProtectedCache(keyPrefix string, ttl time.Duration) *ProtectedCache {
	return &ProtectedCache{
		keyPrefix: keyPrefix,
		ttl:       ttl,
		emptyTTL:  emptyValueTTL,
	}
}

// Set 设置缓存，nil 值以空值标识存储
func (pc *ProtectedCache) Set(ctx context.Context, key string, value interface{}) error {
	cacheKey := redis.Key(pc.keyPrefix, key)

	if value == nil {
		return redis.Client().Set(ctx, cacheKey, emptyValueFlag, pc.emptyTTL).Err()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return redis.Client().Set(ctx, cacheKey, data, pc.jitteredTTL()).Err()
}

// Get 获取缓存。返回 hit=true 且 dest 未被填充时表示空值命中
func (pc *ProtectedCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := redis.Client().Get(ctx, redis.Key(pc.keyPrefix, key)).Result()
	if err != nil {
		if errors.Is(err, ri.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache: %w", err)
	}

	if data == emptyValueFlag {
		return true, nil
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

// Delete 删除缓存
func (pc *ProtectedCache) Delete(ctx context.Context, key string) error {
	return redis.Client().Del(ctx, redis.Key(pc.keyPrefix, key)).Err()
}

// BatchDelete 批量删除缓存
func (pc *ProtectedCache) BatchDelete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := redis.Client().Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, redis.Key(pc.keyPrefix, key))
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (pc *ProtectedCache) jitteredTTL() time.Duration {
	if pc.ttl <= 0 {
		return 0
	}
	return pc.ttl + time.Duration(rand.Int63n(int64(ttlJitterMax)))
}
