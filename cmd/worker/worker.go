package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"TourAdmin/config"
	"TourAdmin/internal/cache"
	"TourAdmin/internal/queue"
	"TourAdmin/pkg/logger"
	"TourAdmin/pkg/metrics"
	mqotel "TourAdmin/pkg/mq"
	otelinit "TourAdmin/pkg/otel"
	redisotel "TourAdmin/pkg/redis"
	"TourAdmin/pkg/snowflake"
	"TourAdmin/storage"
)

func main() {

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	shutdownOTel, err := otelinit.InitOpenTelemetry(ctx, otelinit.Config{
		ServiceName:  config.Cfg.ServiceName + "-worker",
		Environment:  config.Cfg.Environment,
		OTLPEndpoint: config.Cfg.OTELEndpoint,
	})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(flushCtx)
	}()

	meter := otel.Meter(config.Cfg.ServiceName + "-worker")
	if err := mqotel.InitMQMetrics(meter); err != nil {
		logger.Logger.Warn("Failed to initialize MQ metrics", zap.Error(err))
	}
	if err := redisotel.InitRedisMetrics(meter); err != nil {
		logger.Logger.Warn("Failed to initialize Redis metrics", zap.Error(err))
	}
	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize listing metrics", zap.Error(err))
	}

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	logger.Logger.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
		zap.Int("thumbnail_consumers", config.Cfg.WorkerConcurrency),
	)

	// 消息去重与缓存失效都基于 Redis
	locker := cache.RedisLocker{}
	thumbs := queue.NewThumbnailHandler(config.Cfg.MediaRoot, config.Cfg.ThumbnailWidth, config.Cfg.WorkerRatePerSec, locker)
	events := &queue.ListingEventHandler{
		Reference: cache.NewReferenceCache(config.Cfg.ReferenceCacheTTL),
		Dedup:     locker,
	}

	var wg sync.WaitGroup
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logger.Logger.Error("Consumer exited", zap.String("consumer", name), zap.Error(err))
				cancel()
			}
		}()
	}

	concurrency := config.Cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	for i := 0; i < concurrency; i++ {
		run(fmt.Sprintf("thumbnail-%d", i), func() error {
			return queue.StartThumbnailConsumer(ctx, thumbs, 1)
		})
	}
	run("listing-events", func() error {
		return queue.StartListingEventConsumer(ctx, events)
	})

	wg.Wait()

	logger.Logger.Info("Worker service shutting down gracefully")
}
