package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"TourAdmin/config"
	"TourAdmin/internal/cache"
	"TourAdmin/internal/repository"
	"TourAdmin/pkg/errors"
	"TourAdmin/pkg/logger"
	"TourAdmin/pkg/metrics"
	"TourAdmin/storage/database"
)

// 外部数据不可用时使用的内置下拉框数据
var defaultReference = map[string][]string{
	repository.RefCategory:    {"Adventure", "Cultural", "Wildlife Safari", "Beach & Relaxation", "Mountain Trekking"},
	repository.RefEventType:   {"Festival", "Concert", "Workshop", "Conference", "Sports"},
	repository.RefDestination: {"Zanzibar", "Arusha", "Serengeti", "Kilimanjaro", "Usambara Mountains"},
}

// ReferenceCache 参考数据缓存，可为 nil
type ReferenceCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// ReferenceList 下拉框数据。Fallback 为 true 表示来自内置默认值。
type ReferenceList struct {
	Kind     string               `json:"kind"`
	Items    []repository.RefItem `json:"items"`
	Fallback bool                 `json:"fallback"`
}

var (
	referenceService *ReferenceService
	referenceOnce    sync.Once
)

func Reference() *ReferenceService {
	referenceOnce.Do(func() {
		referenceService = NewReferenceService(
			repository.NewListingRepository(database.DB(), config.Cfg.GatewayTimeout),
			cache.NewReferenceCache(config.Cfg.ReferenceCacheTTL),
			cache.NewCircuitBreaker("reference_store", 3, 30*time.Second),
		)
	})
	return referenceService
}

type ReferenceService struct {
	gateway repository.Gateway
	cache   ReferenceCache
	breaker *cache.CircuitBreaker
}

func NewReferenceService(gateway repository.Gateway, rc ReferenceCache, breaker *cache.CircuitBreaker) *ReferenceService {
	return &ReferenceService{gateway: gateway, cache: rc, breaker: breaker}
}

// List 依次尝试缓存、存储，都不可用时退回内置默认值，永不因存储故障报错
func (s *ReferenceService) List(ctx context.Context, kind string) (*ReferenceList, error) {
	defaults, ok := defaultReference[kind]
	if !ok {
		return nil, errors.InvalidRequest
	}

	if s.cache != nil {
		var items []repository.RefItem
		hit, err := s.cache.Get(ctx, kind, &items)
		if err != nil {
			logger.Logger.Warn("Reference cache read failed", zap.String("kind", kind), zap.Error(err))
		} else if hit && len(items) > 0 {
			return &ReferenceList{Kind: kind, Items: items}, nil
		}
	}

	var items []repository.RefItem
	load := func(ctx context.Context) error {
		var err error
		items, err = s.gateway.ListReferenceData(ctx, kind)
		return err
	}
	var err error
	if s.breaker != nil {
		err = s.breaker.Call(ctx, load)
	} else {
		err = load(ctx)
	}

	if err != nil || len(items) == 0 {
		metrics.GetMetrics().RecordReferenceFallback(ctx, kind)
		logger.Logger.Warn("Reference data unavailable, using defaults",
			zap.String("kind", kind),
			zap.Int("items", len(items)),
			zap.Error(err),
		)
		return &ReferenceList{Kind: kind, Items: fallbackItems(defaults), Fallback: true}, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, kind, items); err != nil {
			logger.Logger.Warn("Reference cache write failed", zap.String("kind", kind), zap.Error(err))
		}
	}
	return &ReferenceList{Kind: kind, Items: items}, nil
}

func fallbackItems(names []string) []repository.RefItem {
	items := make([]repository.RefItem, 0, len(names))
	for _, name := range names {
		items = append(items, repository.RefItem{ID: name, Name: name})
	}
	return items
}
