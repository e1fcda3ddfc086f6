package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"touradmin"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"touradmin"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"10"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"50"`
	// 只读副本主机名，逗号分隔；为空时读写都走主库
	PostgreSQLReplicas []string `env:"POSTGRESQL_REPLICAS" envSeparator:","`
	// 网关单次调用超时，0 表示不限制
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"tadm"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置
	JWTSecret        string `env:"JWT_SECRET"` // 必填，用于签名 JWT
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"480"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`
	LoggerMaxSizeMB  int    `env:"LOGGER_MAX_SIZE_MB" envDefault:"100"`
	LoggerMaxBackups int    `env:"LOGGER_MAX_BACKUPS" envDefault:"5"`
	LoggerMaxAgeDays int    `env:"LOGGER_MAX_AGE_DAYS" envDefault:"30"`

	// 链路追踪与指标，Endpoint 为空时不导出
	OTELEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"50"` // 每秒请求数

	// 草稿会话
	DraftSessionTTL time.Duration `env:"DRAFT_SESSION_TTL" envDefault:"24h"`
	SubmitLockTTL   time.Duration `env:"SUBMIT_LOCK_TTL" envDefault:"30s"`

	// 参考数据缓存
	ReferenceCacheTTL time.Duration `env:"REFERENCE_CACHE_TTL" envDefault:"10m"`

	// 媒体上传
	MediaRoot         string `env:"MEDIA_ROOT" envDefault:"./uploads"`
	MediaPublicURL    string `env:"MEDIA_PUBLIC_URL" envDefault:"http://localhost:8888/media"`
	MediaMaxBytes     int64  `env:"MEDIA_MAX_BYTES" envDefault:"10485760"`
	MediaDefaultHint  string `env:"MEDIA_DEFAULT_BUCKET" envDefault:"listings"`
	ThumbnailWidth    int    `env:"THUMBNAIL_WIDTH" envDefault:"300"`
	WorkerRatePerSec  int    `env:"WORKER_RATE_PER_SEC" envDefault:"5"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY" envDefault:"4"`
}

func init() {

	if err := godotenv.Load(); err != nil {

		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}
}

// Validate 检查服务启动必需的配置，只由可执行程序调用。
func Validate() {
	if Cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if len(Cfg.JWTSecret) < 32 {
		log.Printf("WARN: JWT_SECRET is shorter than 32 bytes")
	}
	if Cfg.MediaMaxBytes <= 0 {
		log.Fatal("MEDIA_MAX_BYTES must be positive")
	}
	if Cfg.OTELEndpoint == "" {
		log.Printf("WARN: OTEL_EXPORTER_OTLP_ENDPOINT is not set, traces and metrics will not be exported")
	}
}

func (c *Config) GetDSN() string {
	return c.dsn(c.PostgreSQLHost)
}

func (c *Config) dsn(host string) string {
	return "host=" + host +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

// GetReplicaDSNs 副本与主库共用账号，只替换主机名。
func (c *Config) GetReplicaDSNs() []string {
	out := make([]string, 0, len(c.PostgreSQLReplicas))
	for _, host := range c.PostgreSQLReplicas {
		if host != "" {
			out = append(out, c.dsn(host))
		}
	}
	return out
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
