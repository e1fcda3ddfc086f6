package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"TourAdmin/config"
	"TourAdmin/internal/cache"
	"TourAdmin/internal/draft"
	"TourAdmin/internal/queue"
	"TourAdmin/internal/repository"
	"TourAdmin/pkg/errors"
	"TourAdmin/pkg/logger"
	"TourAdmin/pkg/metrics"
	"TourAdmin/storage/database"
)

// SessionStore 草稿会话存储
type SessionStore interface {
	Save(ctx context.Context, id string, value interface{}) error
	Load(ctx context.Context, id string, dest interface{}) (bool, error)
	Delete(ctx context.Context, id string) error
}

// Locker 拒绝同一会话上的并发提交与上传
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// EventPublisher 领域事件投递，失败只记日志
type EventPublisher interface {
	PublishListingEvent(ctx context.Context, msg queue.ListingEventMessage) error
	PublishMediaUploaded(ctx context.Context, msg queue.MediaUploadedMessage) error
}

var (
	listingService *ListingService
	listingOnce    sync.Once
)

// Listing 返回基于全局存储初始化的服务实例，必须在 storage.Init 之后调用
func Listing() *ListingService {
	listingOnce.Do(func() {
		listingService = NewListingService(ListingDeps{
			Gateway:   repository.NewListingRepository(database.DB(), config.Cfg.GatewayTimeout),
			Sessions:  cache.NewSessionStore(config.Cfg.DraftSessionTTL),
			Locker:    cache.RedisLocker{},
			Publisher: queue.NewProducer(),
			Media:     Media(),
			LockTTL:   config.Cfg.SubmitLockTTL,
		})
	})
	return listingService
}

// ListingDeps 服务依赖，测试时注入内存实现
type ListingDeps struct {
	Gateway   repository.Gateway
	Sessions  SessionStore
	Locker    Locker
	Publisher EventPublisher
	Media     *MediaService
	LockTTL   time.Duration
}

// ListingService 驱动草稿会话：编辑、分步校验、提交
type ListingService struct {
	gateway   repository.Gateway
	sessions  SessionStore
	locker    Locker
	publisher EventPublisher
	media     *MediaService
	lockTTL   time.Duration
	now       func() time.Time
	newID     func() string
}

func NewListingService(d ListingDeps) *ListingService {
	lockTTL := d.LockTTL
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &ListingService{
		gateway:   d.Gateway,
		sessions:  d.Sessions,
		locker:    d.Locker,
		publisher: d.Publisher,
		media:     d.Media,
		lockTTL:   lockTTL,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// StartCreate 以空草稿开启创建流程
func (s *ListingService) StartCreate(ctx context.Context, kind draft.Kind) (*Session, error) {
	if !kind.Valid() {
		return nil, errors.InvalidKind
	}

	now := s.now()
	sess := &Session{
		ID:        s.newID(),
		Kind:      kind,
		Draft:     draft.New(kind),
		Wizard:    draft.NewWizard(kind, false),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	logger.Logger.Info("Draft session started",
		zap.String("session_id", sess.ID),
		zap.String("kind", string(kind)),
	)
	return sess, nil
}

// StartEdit 从已保存的记录加载草稿，旧格式数据在这里一次性归一化
func (s *ListingService) StartEdit(ctx context.Context, kind draft.Kind, listingID string) (*Session, error) {
	if !kind.Valid() {
		return nil, errors.InvalidKind
	}

	rec, err := s.gateway.GetByID(ctx, kind, listingID)
	if err != nil {
		return nil, fmt.Errorf("load listing %s: %w", listingID, err)
	}
	if rec == nil {
		return nil, errors.ListingNotFound
	}

	now := s.now()
	sess := &Session{
		ID:        s.newID(),
		Kind:      kind,
		ListingID: rec.ID,
		Draft:     draft.FromRecord(rec),
		Wizard:    draft.NewWizard(kind, true),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	logger.Logger.Info("Edit session started",
		zap.String("session_id", sess.ID),
		zap.String("kind", string(kind)),
		zap.String("listing_id", rec.ID),
	)
	return sess, nil
}

// GetSession 读取会话
func (s *ListingService) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.load(ctx, id)
}

// Discard 放弃草稿
func (s *ListingService) Discard(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *ListingService) load(ctx context.Context, id string) (*Session, error) {
	var sess Session
	found, err := s.sessions.Load(ctx, id, &sess)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found || sess.Draft == nil || sess.Wizard == nil {
		return nil, errors.SessionNotFound
	}
	if sess.Draft.Errors == nil {
		sess.Draft.Errors = draft.ErrorMap{}
	}
	return &sess, nil
}

func (s *ListingService) save(ctx context.Context, sess *Session) error {
	if err := s.sessions.Save(ctx, sess.ID, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// mutate 读取、修改、写回。fn 返回错误时不写回。
func (s *ListingService) mutate(ctx context.Context, id string, fn func(sess *Session) error) (*Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SetFields 批量设置标量字段，任一字段未知时整批拒绝
func (s *ListingService) SetFields(ctx context.Context, id string, fields map[string]string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		// title 先处理，同批提交的 slug 才不会被派生值覆盖
		if v, ok := fields["title"]; ok {
			if !sess.Draft.SetField("title", v) {
				return errors.UnknownField
			}
		}
		for name, value := range fields {
			if name == "title" {
				continue
			}
			if !sess.Draft.SetField(name, value) {
				return fmt.Errorf("%w: %s", errors.UnknownField, name)
			}
		}
		return nil
	})
}

func listField(name string) (draft.ListField, error) {
	f, ok := draft.ParseListField(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.UnknownField, name)
	}
	return f, nil
}

func (s *ListingService) AddArrayItem(ctx context.Context, id, field string) (*Session, error) {
	f, err := listField(field)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Draft.AddArrayItem(f)
		return nil
	})
}

func (s *ListingService) UpdateArrayItem(ctx context.Context, id, field string, index int, value string) (*Session, error) {
	f, err := listField(field)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Draft.UpdateArrayItem(f, index, value)
		return nil
	})
}

func (s *ListingService) RemoveArrayItem(ctx context.Context, id, field string, index int) (*Session, error) {
	f, err := listField(field)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Draft.RemoveArrayItem(f, index)
		return nil
	})
}

func (s *ListingService) AddDay(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Draft.AddDay()
		return nil
	})
}

func (s *ListingService) RemoveDay(ctx context.Context, id string, index int) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Draft.RemoveDay(index)
		return nil
	})
}

// DayUpdate 行程日的部分更新，Meals 为 nil 时不修改
type DayUpdate struct {
	Fields map[string]string `json:"fields"`
	Meals  []string          `json:"meals"`
}

func (s *ListingService) UpdateDay(ctx context.Context, id string, index int, upd DayUpdate) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		for name, value := range upd.Fields {
			if !sess.Draft.UpdateDay(index, name, value) && index >= 0 && index < len(sess.Draft.Itinerary) {
				return fmt.Errorf("%w: %s", errors.UnknownField, name)
			}
		}
		if upd.Meals != nil {
			sess.Draft.SetMeals(index, upd.Meals)
		}
		return nil
	})
}

func (s *ListingService) MoveDay(ctx context.Context, id string, index int, direction string) (*Session, error) {
	dir := draft.Direction(direction)
	if dir != draft.DirectionUp && dir != draft.DirectionDown {
		return nil, errors.InvalidRequest
	}
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Draft.ReorderDay(index, dir)
		return nil
	})
}

func (s *ListingService) AddActivity(ctx context.Context, id string, day int, text string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Draft.AddActivity(day, text)
		return nil
	})
}

func (s *ListingService) RemoveActivity(ctx context.Context, id string, day, activity int) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Draft.RemoveActivity(day, activity)
		return nil
	})
}

func (s *ListingService) AddFaq(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Draft.AddFaq()
		return nil
	})
}

func (s *ListingService) RemoveFaq(ctx context.Context, id string, index int) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Draft.RemoveFaq(index)
		return nil
	})
}

func (s *ListingService) UpdateFaq(ctx context.Context, id string, index int, fields map[string]string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		for name, value := range fields {
			if !sess.Draft.UpdateFaq(index, name, value) && index >= 0 && index < len(sess.Draft.FAQs) {
				return fmt.Errorf("%w: %s", errors.UnknownField, name)
			}
		}
		return nil
	})
}

// Next 校验当前步骤，通过则前进。校验错误写入草稿并保存，返回是否前进。
func (s *ListingService) Next(ctx context.Context, id string) (*Session, bool, error) {
	var advanced bool
	sess, err := s.mutate(ctx, id, func(sess *Session) error {
		step := sess.Wizard.Current
		errs, ok, err := sess.Wizard.Next(sess.Draft)
		if stderrors.Is(err, draft.ErrLastStep) {
			return errors.StepNotReachable
		}
		advanced = ok
		if !errs.Empty() {
			metrics.GetMetrics().RecordValidationFailure(ctx, string(sess.Kind), string(step))
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return sess, advanced, nil
}

func (s *ListingService) Previous(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Wizard.Previous()
		return nil
	})
}

// Jump 通过步骤指示器跳转，仅编辑流程可用
func (s *ListingService) Jump(ctx context.Context, id string, step string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		if !sess.Wizard.Jump(draft.Step(step)) {
			return errors.StepNotReachable
		}
		return nil
	})
}

// SubmitResult 提交结果。ItinerarySaved 为 false 表示父记录已保存但行程写入失败。
type SubmitResult struct {
	Listing        *draft.Record `json:"listing"`
	Created        bool          `json:"created"`
	ItinerarySaved bool          `json:"itinerary_saved"`
	Warnings       []Warning     `json:"warnings"`
}

// Submit 全量校验、归一化后分两步写入：先父记录，成功后再替换行程。
// 父记录失败时不写子记录，会话保留以便重试；成功后会话删除。
func (s *ListingService) Submit(ctx context.Context, id, operator string) (*SubmitResult, error) {
	start := s.now()

	lockKey := "submit:" + id
	locked, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire submit lock: %w", err)
	}
	if !locked {
		return nil, errors.SubmitInProgress
	}
	defer s.unlock(ctx, lockKey)

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	kind := string(sess.Kind)

	if errs := draft.ValidateAll(sess.Draft); !errs.Empty() {
		sess.Draft.Errors = errs
		sess.UpdatedAt = s.now()
		if err := s.save(ctx, sess); err != nil {
			logger.Logger.Warn("Failed to store validation errors", zap.String("session_id", id), zap.Error(err))
		}
		metrics.GetMetrics().RecordValidationFailure(ctx, kind, "submit")
		return nil, &ValidationError{Fields: errs}
	}

	payload, err := draft.Normalize(sess.Draft)
	if err != nil {
		if stderrors.Is(err, draft.ErrInvalidPrice) {
			return nil, errors.InvalidPrice
		}
		return nil, fmt.Errorf("normalize draft: %w", err)
	}

	created := sess.ListingID == ""
	var rec *draft.Record
	if created {
		rec, err = s.gateway.Create(ctx, sess.Kind, payload)
	} else {
		rec, err = s.gateway.Update(ctx, sess.Kind, sess.ListingID, payload)
	}
	if err != nil {
		metrics.GetMetrics().RecordSubmission(ctx, kind, "failed", s.now().Sub(start))
		logger.Logger.Error("Listing submission failed",
			zap.String("session_id", id),
			zap.String("kind", kind),
			zap.String("listing_id", sess.ListingID),
			zap.Error(err),
		)
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.ListingNotFound
		}
		return nil, fmt.Errorf("%w: %v", errors.SubmissionFailed, err)
	}

	result := &SubmitResult{
		Listing:        rec,
		Created:        created,
		ItinerarySaved: true,
		Warnings:       []Warning{},
	}

	// Event 新建且没有行程时跳过子表；编辑时总是替换，清空已删除的行程日
	if sess.Kind == draft.KindTour || len(payload.Itinerary) > 0 || !created {
		days := payload.ItineraryFor(rec.ID)
		if err := s.gateway.ReplaceItinerary(ctx, sess.Kind, rec.ID, days); err != nil {
			result.ItinerarySaved = false
			result.Warnings = append(result.Warnings, warningOf(errors.ItineraryNotSaved))
			metrics.GetMetrics().RecordPartialWrite(ctx, kind)
			logger.Logger.Error("Itinerary write failed after listing was saved",
				zap.String("session_id", id),
				zap.String("listing_id", rec.ID),
				zap.Int("days", len(days)),
				zap.Error(err),
			)
		} else {
			rec.Itinerary = recordDays(days)
		}
	}

	eventType := queue.ListingUpdated
	if created {
		eventType = queue.ListingCreated
	}
	s.publishListingEvent(ctx, eventType, rec, operator)

	if err := s.sessions.Delete(ctx, id); err != nil {
		logger.Logger.Warn("Failed to delete submitted session", zap.String("session_id", id), zap.Error(err))
	}

	outcome := "success"
	if !result.ItinerarySaved {
		outcome = "partial"
	}
	metrics.GetMetrics().RecordSubmission(ctx, kind, outcome, s.now().Sub(start))
	logger.Logger.Info("Listing submitted",
		zap.String("session_id", id),
		zap.String("kind", kind),
		zap.String("listing_id", rec.ID),
		zap.Bool("created", created),
		zap.Bool("itinerary_saved", result.ItinerarySaved),
		zap.String("operator", operator),
	)
	return result, nil
}

func (s *ListingService) unlock(ctx context.Context, key string) {
	if err := s.locker.Unlock(context.WithoutCancel(ctx), key); err != nil {
		logger.Logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
	}
}

func recordDays(days []draft.DayPayload) []draft.RecordDay {
	out := make([]draft.RecordDay, 0, len(days))
	for _, d := range days {
		meals, _ := json.Marshal(d.Meals)
		activities, _ := json.Marshal(d.Activities)
		out = append(out, draft.RecordDay{
			DayNumber:     d.DayNumber,
			Title:         d.Title,
			Description:   d.Description,
			Location:      d.Location,
			Distance:      d.Distance,
			Difficulty:    d.Difficulty,
			Accommodation: d.Accommodation,
			Meals:         meals,
			Activities:    activities,
		})
	}
	return out
}

func (s *ListingService) publishListingEvent(ctx context.Context, eventType string, rec *draft.Record, operator string) {
	if s.publisher == nil {
		return
	}
	category := rec.Category
	if rec.Kind == draft.KindEvent {
		category = rec.EventType
	}
	msg := queue.ListingEventMessage{
		EventType:  eventType,
		Kind:       string(rec.Kind),
		ListingID:  rec.ID,
		Slug:       rec.Slug,
		Category:   category,
		Location:   rec.Location,
		Operator:   operator,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishListingEvent(ctx, msg); err != nil {
		logger.Logger.Warn("Listing event not published",
			zap.String("event_type", eventType),
			zap.String("listing_id", rec.ID),
			zap.Error(err),
		)
	}
}

// GetListing 读取已保存的记录
func (s *ListingService) GetListing(ctx context.Context, kind draft.Kind, id string) (*draft.Record, error) {
	if !kind.Valid() {
		return nil, errors.InvalidKind
	}
	rec, err := s.gateway.GetByID(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	if rec == nil {
		return nil, errors.ListingNotFound
	}
	return rec, nil
}

// DeleteListing 删除记录，不存在时返回 ListingNotFound
func (s *ListingService) DeleteListing(ctx context.Context, kind draft.Kind, id, operator string) error {
	if !kind.Valid() {
		return errors.InvalidKind
	}
	removed, err := s.gateway.Remove(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("remove listing %s: %w", id, err)
	}
	if !removed {
		return errors.ListingNotFound
	}

	s.publishListingEvent(ctx, queue.ListingDeleted, &draft.Record{ID: id, Kind: kind}, operator)
	logger.Logger.Info("Listing removed",
		zap.String("kind", string(kind)),
		zap.String("listing_id", id),
		zap.String("operator", operator),
	)
	return nil
}

// ListListings 列表页查询
func (s *ListingService) ListListings(ctx context.Context, kind draft.Kind, q repository.ListQuery) ([]draft.Record, int64, repository.ListQuery, error) {
	if !kind.Valid() {
		return nil, 0, q, errors.InvalidKind
	}
	q = q.Normalized(kind)
	items, total, err := s.gateway.List(ctx, kind, q)
	if err != nil {
		return nil, 0, q, fmt.Errorf("list %s: %w", kind, err)
	}
	return items, total, q, nil
}
