package cache

import (
	"context"
	"time"
)

const referencePrefix = "reference"

// ReferenceKinds 缓存的参考数据种类
var ReferenceKinds = []string{"category", "event_type", "destination"}

// ReferenceCache 下拉框数据缓存，键为参考数据种类
type ReferenceCache struct {
	*ProtectedCache
}

func NewReferenceCache(ttl time.Duration) *ReferenceCache {
	return &ReferenceCache{ProtectedCache: NewProtectedCache(referencePrefix, ttl)}
}

// InvalidateReference 清空所有参考数据缓存，列表变更时由 worker 调用
func (rc *ReferenceCache) InvalidateReference(ctx context.Context) error {
	return rc.BatchDelete(ctx, ReferenceKinds)
}
