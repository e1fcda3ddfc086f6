package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey  = "otel:span"
	startKey = "otel:start_time"
)

var (
	dbQueriesTotal  metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
)

// InitDatabaseMetrics 初始化数据库指标
func InitDatabaseMetrics(meter metric.Meter) error {
	var err error

	dbQueriesTotal, err = meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return err
	}

	dbQueryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	return err
}

// OTELPlugin GORM OpenTelemetry 插件
type OTELPlugin struct {
	tracer       trace.Tracer
	dbName       string
	maxSQLLength int
}

// NewOTELPlugin 创建插件实例
func NewOTELPlugin(serviceName, dbName string) *OTELPlugin {
	return &OTELPlugin{
		tracer:       otel.Tracer(serviceName + ".gorm"),
		dbName:       dbName,
		maxSQLLength: 500,
	}
}

// Name 实现 gorm.Plugin 接口
func (p *OTELPlugin) Name() string {
	return "otel_plugin"
}

// Initialize 注册回调
func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	steps := []struct {
		name     string
		register func(name string, fn func(*gorm.DB)) error
	}{
		{"create", func(n string, fn func(*gorm.DB)) error { return cb.Create().Before("gorm:create").Register(n, fn) }},
		{"query", func(n string, fn func(*gorm.DB)) error { return cb.Query().Before("gorm:query").Register(n, fn) }},
		{"update", func(n string, fn func(*gorm.DB)) error { return cb.Update().Before("gorm:update").Register(n, fn) }},
		{"delete", func(n string, fn func(*gorm.DB)) error { return cb.Delete().Before("gorm:delete").Register(n, fn) }},
		{"row", func(n string, fn func(*gorm.DB)) error { return cb.Row().Before("gorm:row").Register(n, fn) }},
		{"raw", func(n string, fn func(*gorm.DB)) error { return cb.Raw().Before("gorm:raw").Register(n, fn) }},
	}
	for _, s := range steps {
		if err := s.register("otel:before_"+s.name, p.before(s.name)); err != nil {
			return err
		}
	}

	afters := []error{
		cb.Create().After("gorm:create").Register("otel:after_create", p.after),
		cb.Query().After("gorm:query").Register("otel:after_query", p.after),
		cb.Update().After("gorm:update").Register("otel:after_update", p.after),
		cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after),
		cb.Row().After("gorm:row").Register("otel:after_row", p.after),
		cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after),
	}
	return errors.Join(afters...)
}

func (p *OTELPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx, span := p.tracer.Start(db.Statement.Context, "db."+operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemPostgreSQL,
				semconv.DBName(p.dbName),
				semconv.DBOperation(operation),
			),
		)
		db.InstanceSet(spanKey, span)
		db.InstanceSet(startKey, time.Now())
		db.Statement.Context = ctx
	}
}

func (p *OTELPlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if table := db.Statement.Table; table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}
	sql := db.Statement.SQL.String()
	if len(sql) > p.maxSQLLength {
		sql = sql[:p.maxSQLLength] + "..."
	}
	// 只记录带占位符的语句，不记录参数
	span.SetAttributes(
		semconv.DBStatement(sql),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)

	status := "success"
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		status = "error"
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if t, ok := db.InstanceGet(startKey); ok {
		if start, ok := t.(time.Time); ok {
			recordQuery(db.Statement.Context, operationOf(sql), status, time.Since(start))
		}
	}
}

func operationOf(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return strings.ToLower(op)
		}
	}
	return "query"
}

func recordQuery(ctx context.Context, operation, status string, d time.Duration) {
	if dbQueriesTotal == nil || dbQueryDuration == nil {
		return
	}
	labels := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.status", status),
	)
	dbQueriesTotal.Add(ctx, 1, labels)
	dbQueryDuration.Record(ctx, d.Seconds(), labels)
}

// WithOTELPlugin 为 GORM 添加 OpenTelemetry 插件
func WithOTELPlugin(db *gorm.DB, serviceName, dbName string) error {
	return db.Use(NewOTELPlugin(serviceName, dbName))
}
