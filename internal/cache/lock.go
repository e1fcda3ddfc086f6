package cache

import (
	"context"
	"time"

	"TourAdmin/storage/redis"
)

// 通过 SETNX 实现的分布式锁，用于拒绝同一草稿的并发提交和上传
const (
	lockPrefix = "lock"
)

func TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullkey := redis.Key(lockPrefix, key)

	return redis.Client().SetNX(ctx, fullkey, 1, ttl).Result()
}

func Unlock(ctx context.Context, key string) error {
	fullkey := redis.Key(lockPrefix, key)

	return redis.Client().Del(ctx, fullkey).Err()
}

// RedisLocker 把包级锁函数包装成可注入的对象
type RedisLocker struct{}

func (RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return TryLock(ctx, key, ttl)
}

func (RedisLocker) Unlock(ctx context.Context, key string) error {
	return Unlock(ctx, key)
}
