package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"TourAdmin/config"
	"TourAdmin/pkg/errors"
	"TourAdmin/pkg/logger"
	"TourAdmin/pkg/response"
	"TourAdmin/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 时间窗口（秒）
	Window int
	// 时间窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 是否按操作员限流（需要认证）
	ByOperator bool
	// 是否按IP限流
	ByIP bool
	// 阻塞时长（秒），超过限制后禁止访问的时间，0 表示不阻塞
	BlockDuration int
}

// AdminRateLimitConfig 后台接口整体限流，每个操作员独立计数
func AdminRateLimitConfig() RateLimitConfig {
	rps := config.Cfg.RateLimitRPS
	if rps <= 0 {
		rps = 50
	}
	return RateLimitConfig{
		Window:      10,
		MaxRequests: rps * 10,
		KeyPrefix:   "rate:admin",
		ByOperator:  true,
		ByIP:        true,
	}
}

// UploadRateLimitConfig 上传接口限流
var UploadRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   60,
	KeyPrefix:     "rate:upload",
	ByOperator:    true,
	ByIP:          true,
	BlockDuration: 120,
}

// RateLimiter 基于 Redis 有序集合的滑动窗口限流器
type RateLimiter struct {
	config RateLimitConfig
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config: config,
	}
}

func (rl *RateLimiter) getKey(ctx context.Context, c *app.RequestContext) string {
	var identifier string

	if rl.config.ByOperator {
		if operator, exists := GetOperator(ctx, c); exists {
			identifier = fmt.Sprintf("op:%s", operator)
		}
	}

	if identifier == "" && rl.config.ByIP {
		identifier = fmt.Sprintf("ip:%s", c.ClientIP())
	}

	return redis.Key(rl.config.KeyPrefix, identifier)
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(ctx context.Context, c *app.RequestContext) (bool, int, error) {
	key := rl.getKey(ctx, c)
	now := time.Now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	pipe := redis.Client().Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcardCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) blockKey(ctx context.Context, c *app.RequestContext) string {
	return rl.getKey(ctx, c) + ":block"
}

func (rl *RateLimiter) Block(ctx context.Context, c *app.RequestContext) error {
	if rl.config.BlockDuration <= 0 {
		return nil
	}
	return redis.Client().Set(ctx, rl.blockKey(ctx, c), "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, c *app.RequestContext) (bool, error) {
	if rl.config.BlockDuration <= 0 {
		return false, nil
	}
	result, err := redis.Client().Exists(ctx, rl.blockKey(ctx, c)).Result()
	return result > 0, err
}

// RateLimitMiddleware 创建限流中间件，RATE_LIMIT_ENABLED=false 时直接放行
func RateLimitMiddleware(cfg RateLimitConfig) app.HandlerFunc {
	if !config.Cfg.RateLimitEnabled {
		return func(ctx context.Context, c *app.RequestContext) {
			c.Next(ctx)
		}
	}

	limiter := NewRateLimiter(cfg)

	return func(ctx context.Context, c *app.RequestContext) {
		blocked, err := limiter.IsBlocked(ctx, c)
		if err != nil {
			logger.Logger.Error("Failed to check block status", zap.Error(err))
			response.Error(ctx, c, errors.InternalError)
			c.Abort()
			return
		}
		if blocked {
			response.Error(ctx, c, errors.RateLimited)
			c.Abort()
			return
		}

		allowed, count, err := limiter.Allow(ctx, c)
		if err != nil {
			logger.Logger.Error("Failed to check rate limit", zap.Error(err))
			response.Error(ctx, c, errors.InternalError)
			c.Abort()
			return
		}

		remaining := cfg.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(cfg.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, c); err != nil {
				logger.Logger.Error("Failed to block client", zap.Error(err))
			}
			response.Error(ctx, c, errors.RateLimited)
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}

// AdminRateLimitMiddleware 后台接口通用限流
func AdminRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(AdminRateLimitConfig())
}

// UploadRateLimitMiddleware 上传接口限流
func UploadRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(UploadRateLimitConfig)
}
