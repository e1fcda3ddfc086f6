package mq

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"TourAdmin/pkg/logger"
	mqotel "TourAdmin/pkg/mq"
)

// MessageHandler 处理一条消息；返回 ErrDrop 时消息被丢弃而不是重新入队
type MessageHandler func(ctx context.Context, body []byte) error

// ErrDrop 标记无法处理的消息（格式错误等）
var ErrDrop = fmt.Errorf("drop message")

type ConsumeOptions struct {
	Queue         string
	ConsumerTag   string
	PrefetchCount int
	Handler       MessageHandler
}

// Consume 阻塞消费直到 ctx 结束或通道关闭
func Consume(ctx context.Context, opts ConsumeOptions) error {
	conn := Connection()
	if conn == nil {
		return ErrNotConnected
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if opts.PrefetchCount > 0 {
		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	msgs, err := ch.Consume(
		opts.Queue,
		opts.ConsumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Logger.Info("Started consuming messages",
		zap.String("queue", opts.Queue),
		zap.String("consumer_tag", opts.ConsumerTag),
		zap.Int("prefetch_count", opts.PrefetchCount),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Logger.Info("Consumer stopped", zap.String("queue", opts.Queue))
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", opts.Queue)
			}

			start := time.Now()
			msgCtx, span := mqotel.StartConsumeSpan(ctx, opts.Queue, msg)
			err := opts.Handler(msgCtx, msg.Body)
			mqotel.EndSpan(msgCtx, span, "process", msg.RoutingKey, start, err)

			switch {
			case err == nil:
				_ = msg.Ack(false)
			case err == ErrDrop:
				logger.Logger.Warn("Dropping message",
					zap.String("queue", opts.Queue),
					zap.String("message_id", msg.MessageId),
				)
				_ = msg.Nack(false, false)
			default:
				logger.Logger.Error("Failed to process message",
					zap.String("queue", opts.Queue),
					zap.String("consumer_tag", opts.ConsumerTag),
					zap.String("message_id", msg.MessageId),
					zap.Error(err),
				)
				_ = msg.Nack(false, !msg.Redelivered)
			}
		}
	}
}
