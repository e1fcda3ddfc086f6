package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"TourAdmin/config"
	"TourAdmin/pkg/logger"
)

// 交换机与队列拓扑
const (
	EventsExchange = "touradmin.events"

	RoutingListingCreated = "listing.created"
	RoutingListingUpdated = "listing.updated"
	RoutingListingDeleted = "listing.deleted"
	RoutingMediaUploaded  = "media.uploaded"

	QueueListingEvents = "touradmin.listing.events"
	QueueThumbnails    = "touradmin.media.thumbnails"
)

var (
	conn     *amqp.Connection
	connOnce sync.Once
	connErr  error
)

func Init() error {
	connOnce.Do(func() {
		conn, connErr = amqp.Dial(config.Cfg.GetRabbitMQURL())
		if connErr != nil {
			logger.Logger.Error("Failed to connect RabbitMQ", zap.String("addr", config.Cfg.RabbitMQAddr), zap.Error(connErr))
			return
		}

		if connErr = declareTopology(); connErr != nil {
			logger.Logger.Error("Failed to declare RabbitMQ topology", zap.Error(connErr))
			return
		}

		logger.Logger.Info("RabbitMQ initialized", zap.String("exchange", EventsExchange))
	})

	return connErr
}

// Connection 返回共享连接，未初始化时为 nil
func Connection() *amqp.Connection {
	return conn
}

func declareTopology() error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", EventsExchange, err)
	}

	bindings := map[string][]string{
		QueueListingEvents: {"listing.*"},
		QueueThumbnails:    {RoutingMediaUploaded},
	}
	for queue, keys := range bindings {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		for _, key := range keys {
			if err := ch.QueueBind(queue, key, EventsExchange, false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", queue, key, err)
			}
		}
	}

	return nil
}

func Close(ctx context.Context) error {
	if conn == nil || conn.IsClosed() {
		return nil
	}

	pubMutex.Lock()
	if publisherCh != nil {
		_ = publisherCh.Close()
		publisherCh = nil
	}
	pubMutex.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
