package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"TourAdmin/pkg/logger"
	"TourAdmin/pkg/snowflake"
	"TourAdmin/storage/mq"
)

// Producer 把领域事件投递到 RabbitMQ
type Producer struct{}

func NewProducer() *Producer {
	return &Producer{}
}

func messageID(prefix string) (string, error) {
	id, err := snowflake.NextID()
	if err != nil {
		return "", fmt.Errorf("failed to generate message ID: %w", err)
	}
	return fmt.Sprintf("%s_%d", prefix, id), nil
}

// PublishListingEvent 发布列表生命周期事件
func (p *Producer) PublishListingEvent(ctx context.Context, msg ListingEventMessage) error {
	if msg.MessageID == "" {
		id, err := messageID("listing")
		if err != nil {
			return err
		}
		msg.MessageID = id
	}
	if msg.OccurredAt == "" {
		msg.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := mq.PublishMessage(ctx, mq.EventsExchange, msg.EventType, msg.MessageID, msg); err != nil {
		logger.Logger.Error("Failed to publish listing event",
			zap.String("event_type", msg.EventType),
			zap.String("listing_id", msg.ListingID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published listing event",
		zap.String("message_id", msg.MessageID),
		zap.String("event_type", msg.EventType),
		zap.String("kind", msg.Kind),
		zap.String("listing_id", msg.ListingID),
	)
	return nil
}

// PublishMediaUploaded 发布图片上传事件
func (p *Producer) PublishMediaUploaded(ctx context.Context, msg MediaUploadedMessage) error {
	if msg.MessageID == "" {
		id, err := messageID("media")
		if err != nil {
			return err
		}
		msg.MessageID = id
	}
	if msg.OccurredAt == "" {
		msg.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := mq.PublishMessage(ctx, mq.EventsExchange, mq.RoutingMediaUploaded, msg.MessageID, msg); err != nil {
		logger.Logger.Error("Failed to publish media uploaded event",
			zap.String("key", msg.Key),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Debug("Published media uploaded event",
		zap.String("message_id", msg.MessageID),
		zap.String("key", msg.Key),
	)
	return nil
}
