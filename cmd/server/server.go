package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"TourAdmin/config"
	"TourAdmin/internal/middleware"
	"TourAdmin/internal/router"
	dbotel "TourAdmin/pkg/database"
	"TourAdmin/pkg/logger"
	"TourAdmin/pkg/metrics"
	mqotel "TourAdmin/pkg/mq"
	otelinit "TourAdmin/pkg/otel"
	redisotel "TourAdmin/pkg/redis"
	"TourAdmin/pkg/snowflake"
	"TourAdmin/pkg/token"
	"TourAdmin/storage"
	"TourAdmin/storage/database"
)

const serviceVersion = "1.0.0"

func main() {
	config.Validate()

	// 日志部分
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
		ServiceName:    config.Cfg.ServiceName,
		ServiceVersion: serviceVersion,
		Environment:    config.Cfg.Environment,
		OTLPEndpoint:   config.Cfg.OTELEndpoint,
	})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(flushCtx); err != nil {
			logger.Logger.Warn("Failed to flush telemetry", zap.Error(err))
		}
	}()

	// 指标在 MeterProvider 设置之后初始化，失败只影响观测
	meter := otel.Meter(config.Cfg.ServiceName)
	for name, initFn := range map[string]func() error{
		"http":     func() error { return middleware.InitMetrics(meter) },
		"database": func() error { return dbotel.InitDatabaseMetrics(meter) },
		"redis":    func() error { return redisotel.InitRedisMetrics(meter) },
		"mq":       func() error { return mqotel.InitMQMetrics(meter) },
		"listing":  metrics.InitMetrics,
	} {
		if err := initFn(); err != nil {
			logger.Logger.Warn("Failed to initialize metrics", zap.String("group", name), zap.Error(err))
		}
	}

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := database.Migrate(); err != nil {
		logger.Logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	if err := os.MkdirAll(config.Cfg.MediaRoot, 0o755); err != nil {
		logger.Logger.Fatal("Failed to create media root", zap.String("root", config.Cfg.MediaRoot), zap.Error(err))
	}

	if err := token.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	} // token 在中间件前初始化，middleware 依赖 token

	// 初始化中间件
	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	// 服务端 tracer 负责从请求头恢复上游链路
	tracerOpt, tracingMiddleware := middleware.NewServerTracerConfig()
	h := server.Default(
		server.WithHostPorts(addr),
		server.WithMaxRequestBodySize(int(config.Cfg.MediaMaxBytes)*10),
		tracerOpt,
	)
	h.Use(tracingMiddleware)

	router.Register(h)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}
