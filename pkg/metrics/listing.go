package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ListingMetrics 草稿提交与媒体上传相关指标
type ListingMetrics struct {
	SubmissionsTotal   metric.Int64Counter
	SubmitDuration     metric.Float64Histogram
	PartialWritesTotal metric.Int64Counter
	ValidationFailures metric.Int64Counter
	UploadsTotal       metric.Int64Counter
	UploadBytes        metric.Int64Histogram
	ReferenceFallbacks metric.Int64Counter
	ThumbnailsTotal    metric.Int64Counter
}

var metrics *ListingMetrics

// InitMetrics 初始化 OpenTelemetry 指标，需在全局 MeterProvider 设置之后调用
func InitMetrics() error {
	meter := otel.Meter("touradmin")
	m := &ListingMetrics{}
	var err error

	if m.SubmissionsTotal, err = meter.Int64Counter(
		"listing_submissions_total",
		metric.WithDescription("Draft submissions by kind and outcome"),
		metric.WithUnit("{submission}"),
	); err != nil {
		return err
	}
	if m.SubmitDuration, err = meter.Float64Histogram(
		"listing_submit_duration_seconds",
		metric.WithDescription("Time spent writing a submitted draft"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}
	if m.PartialWritesTotal, err = meter.Int64Counter(
		"listing_itinerary_not_saved_total",
		metric.WithDescription("Listings persisted without their itinerary"),
		metric.WithUnit("{listing}"),
	); err != nil {
		return err
	}
	if m.ValidationFailures, err = meter.Int64Counter(
		"listing_validation_failures_total",
		metric.WithDescription("Step transitions or submissions rejected by validation"),
		metric.WithUnit("{failure}"),
	); err != nil {
		return err
	}
	if m.UploadsTotal, err = meter.Int64Counter(
		"media_uploads_total",
		metric.WithDescription("Media uploads by outcome"),
		metric.WithUnit("{file}"),
	); err != nil {
		return err
	}
	if m.UploadBytes, err = meter.Int64Histogram(
		"media_upload_bytes",
		metric.WithDescription("Uploaded file size"),
		metric.WithUnit("By"),
	); err != nil {
		return err
	}
	if m.ReferenceFallbacks, err = meter.Int64Counter(
		"reference_fallback_total",
		metric.WithDescription("Reference lookups served from built-in defaults"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return err
	}
	if m.ThumbnailsTotal, err = meter.Int64Counter(
		"media_thumbnails_total",
		metric.WithDescription("Thumbnails generated by the worker"),
		metric.WithUnit("{file}"),
	); err != nil {
		return err
	}

	metrics = m
	return nil
}

// GetMetrics 获取全局指标实例，未初始化时返回 nil，所有方法对 nil 安全
func GetMetrics() *ListingMetrics {
	return metrics
}

func (m *ListingMetrics) RecordSubmission(ctx context.Context, kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind), attribute.String("outcome", outcome))
	m.SubmissionsTotal.Add(ctx, 1, attrs)
	m.SubmitDuration.Record(ctx, d.Seconds(), attrs)
}

func (m *ListingMetrics) RecordPartialWrite(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.PartialWritesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *ListingMetrics) RecordValidationFailure(ctx context.Context, kind, step string) {
	if m == nil {
		return
	}
	m.ValidationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind), attribute.String("step", step)))
}

func (m *ListingMetrics) RecordUpload(ctx context.Context, bucket, outcome string, size int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("bucket", bucket), attribute.String("outcome", outcome))
	m.UploadsTotal.Add(ctx, 1, attrs)
	if size > 0 {
		m.UploadBytes.Record(ctx, size, attrs)
	}
}

func (m *ListingMetrics) RecordReferenceFallback(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.ReferenceFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *ListingMetrics) RecordThumbnail(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.ThumbnailsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
