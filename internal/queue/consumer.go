package queue

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"TourAdmin/pkg/logger"
	"TourAdmin/pkg/media"
	"TourAdmin/pkg/metrics"
	"TourAdmin/storage/mq"
)

const processedTTL = 24 * time.Hour

// Deduper 消息幂等标记，首次处理返回 true
type Deduper interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// ReferenceInvalidator 列表变化后清理下拉框缓存，目的地列表由列表地点派生
type ReferenceInvalidator interface {
	InvalidateReference(ctx context.Context) error
}

// ThumbnailHandler 生成缩略图，受限速器节流
type ThumbnailHandler struct {
	Root    string
	Width   int
	Limiter *rate.Limiter
	Dedup   Deduper
}

// NewThumbnailHandler perSecond <= 0 时不限速
func NewThumbnailHandler(root string, width, perSecond int, dedup Deduper) *ThumbnailHandler {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &ThumbnailHandler{
		Root:    root,
		Width:   width,
		Limiter: rate.NewLimiter(limit, 1),
		Dedup:   dedup,
	}
}

// Handle 处理一条 media.uploaded 消息
func (h *ThumbnailHandler) Handle(ctx context.Context, body []byte) error {
	var msg MediaUploadedMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.Key == "" {
		logger.Logger.Warn("Invalid media uploaded message", zap.ByteString("body", body), zap.Error(err))
		return mq.ErrDrop
	}

	if !firstDelivery(ctx, h.Dedup, "thumb:"+msg.MessageID) {
		return nil
	}

	if err := h.Limiter.Wait(ctx); err != nil {
		release(ctx, h.Dedup, "thumb:"+msg.MessageID)
		return err
	}

	thumbKey, err := media.Thumbnail(h.Root, msg.Key, h.Width)
	if err != nil {
		metrics.GetMetrics().RecordThumbnail(ctx, "failed")
		logger.Logger.Warn("Failed to generate thumbnail",
			zap.String("key", msg.Key),
			zap.Error(err),
		)
		// 解码失败重试也不会成功
		return mq.ErrDrop
	}

	metrics.GetMetrics().RecordThumbnail(ctx, "success")
	logger.Logger.Info("Thumbnail generated",
		zap.String("key", msg.Key),
		zap.String("thumbnail", thumbKey),
	)
	return nil
}

// ListingEventHandler 处理列表生命周期事件。地点可能新增或消失，任何变更都使目的地缓存失效。
type ListingEventHandler struct {
	Reference ReferenceInvalidator
	Dedup     Deduper
}

func (h *ListingEventHandler) Handle(ctx context.Context, body []byte) error {
	var msg ListingEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Logger.Warn("Invalid listing event message", zap.ByteString("body", body), zap.Error(err))
		return mq.ErrDrop
	}

	if !firstDelivery(ctx, h.Dedup, "listing-event:"+msg.MessageID) {
		return nil
	}

	if err := h.Reference.InvalidateReference(ctx); err != nil {
		release(ctx, h.Dedup, "listing-event:"+msg.MessageID)
		return err
	}

	logger.Logger.Info("Reference cache invalidated",
		zap.String("event_type", msg.EventType),
		zap.String("kind", msg.Kind),
		zap.String("listing_id", msg.ListingID),
	)
	return nil
}

// firstDelivery 标记失败时继续处理，宁可重复也不丢
func firstDelivery(ctx context.Context, d Deduper, key string) bool {
	if d == nil {
		return true
	}
	ok, err := d.TryLock(ctx, key, processedTTL)
	if err != nil {
		logger.Logger.Warn("Failed to mark message processing", zap.String("key", key), zap.Error(err))
		return true
	}
	if !ok {
		logger.Logger.Info("Message already processed, skipping", zap.String("key", key))
	}
	return ok
}

func release(ctx context.Context, d Deduper, key string) {
	if d == nil {
		return
	}
	if err := d.Unlock(ctx, key); err != nil {
		logger.Logger.Warn("Failed to release message mark", zap.String("key", key), zap.Error(err))
	}
}

// StartThumbnailConsumer 阻塞消费缩略图队列
func StartThumbnailConsumer(ctx context.Context, h *ThumbnailHandler, prefetch int) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.QueueThumbnails,
		ConsumerTag:   "thumbnail_consumer",
		PrefetchCount: prefetch,
		Handler:       h.Handle,
	})
}

// StartListingEventConsumer 阻塞消费列表事件队列
func StartListingEventConsumer(ctx context.Context, h *ListingEventHandler) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.QueueListingEvents,
		ConsumerTag:   "listing_event_consumer",
		PrefetchCount: 10,
		Handler:       h.Handle,
	})
}
