package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"TourAdmin/config"
	"TourAdmin/internal/draft"
	"TourAdmin/internal/queue"
	"TourAdmin/pkg/errors"
	"TourAdmin/pkg/logger"
	"TourAdmin/pkg/media"
	"TourAdmin/pkg/metrics"
)

var (
	mediaService *MediaService
	mediaOnce    sync.Once
)

func Media() *MediaService {
	mediaOnce.Do(func() {
		cfg := config.Cfg
		mediaService = NewMediaService(
			media.NewLocalStore(cfg.MediaRoot, cfg.MediaPublicURL, cfg.MediaMaxBytes, cfg.MediaDefaultHint),
			queue.NewProducer(),
		)
	})
	return mediaService
}

// MediaService 上传图片并通知 worker 生成缩略图
type MediaService struct {
	store     media.Store
	publisher EventPublisher
}

func NewMediaService(store media.Store, publisher EventPublisher) *MediaService {
	return &MediaService{store: store, publisher: publisher}
}

// UploadFile 上传单个文件，成功后才返回可访问的 URL
func (s *MediaService) UploadFile(ctx context.Context, r io.Reader, bucketHint string) (*media.Object, error) {
	obj, err := s.store.Upload(ctx, r, bucketHint)
	if err != nil {
		metrics.GetMetrics().RecordUpload(ctx, bucketHint, "failed", 0)
		logger.Logger.Warn("Upload failed", zap.String("bucket_hint", bucketHint), zap.Error(err))
		return nil, uploadError(err)
	}

	metrics.GetMetrics().RecordUpload(ctx, obj.Bucket, "success", obj.Size)
	if s.publisher != nil {
		msg := queue.MediaUploadedMessage{
			Key:         obj.Key,
			URL:         obj.URL,
			Bucket:      obj.Bucket,
			ContentType: obj.ContentType,
			Size:        obj.Size,
			OccurredAt:  time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.publisher.PublishMediaUploaded(ctx, msg); err != nil {
			logger.Logger.Warn("Thumbnail job not queued", zap.String("key", obj.Key), zap.Error(err))
		}
	}
	return obj, nil
}

// UploadFiles 顺序上传，遇到第一个失败即返回
func (s *MediaService) UploadFiles(ctx context.Context, files []io.Reader, bucketHint string) ([]*media.Object, error) {
	if len(files) == 0 {
		return nil, errors.InvalidRequest
	}
	objs := make([]*media.Object, 0, len(files))
	for i, f := range files {
		obj, err := s.UploadFile(ctx, f, bucketHint)
		if err != nil {
			logger.Logger.Warn("Batch upload stopped", zap.Int("index", i), zap.Int("uploaded", len(objs)))
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func uploadError(err error) error {
	switch {
	case stderrors.Is(err, media.ErrInvalidType), stderrors.Is(err, media.ErrEmpty):
		return errors.UploadInvalidType
	case stderrors.Is(err, media.ErrTooLarge):
		return errors.UploadTooLarge
	default:
		return fmt.Errorf("%w: %v", errors.UploadFailed, err)
	}
}

// AttachImage 上传主图，上传成功后才写入草稿；失败时草稿保持原值
func (s *ListingService) AttachImage(ctx context.Context, id string, r io.Reader) (*Session, error) {
	return s.withUploadLock(ctx, id, func(sess *Session) error {
		obj, err := s.media.UploadFile(ctx, r, string(sess.Kind)+"s")
		if err != nil {
			return err
		}
		sess.Draft.SetField("image_url", obj.URL)
		return nil
	})
}

// AttachGallery 全部上传成功后一次性追加到图集
func (s *ListingService) AttachGallery(ctx context.Context, id string, files []io.Reader) (*Session, error) {
	return s.withUploadLock(ctx, id, func(sess *Session) error {
		objs, err := s.media.UploadFiles(ctx, files, string(sess.Kind)+"s-gallery")
		if err != nil {
			return err
		}
		urls := make([]string, 0, len(objs))
		for _, o := range objs {
			urls = append(urls, o.URL)
		}
		sess.Draft.AppendArrayItems(draft.FieldGallery, urls...)
		return nil
	})
}

func (s *ListingService) withUploadLock(ctx context.Context, id string, fn func(sess *Session) error) (*Session, error) {
	if s.media == nil {
		return nil, errors.UploadFailed
	}

	lockKey := "upload:" + id
	locked, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire upload lock: %w", err)
	}
	if !locked {
		return nil, errors.SubmitInProgress
	}
	defer s.unlock(ctx, lockKey)

	return s.mutate(ctx, id, fn)
}
