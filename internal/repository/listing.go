package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"TourAdmin/internal/draft"
	"TourAdmin/internal/model"
	"TourAdmin/pkg/snowflake"
)

// ListingRepository 基于 gorm 的网关实现。
// 读请求走只读副本，写入与写后读固定在主库。
type ListingRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

var _ Gateway = (*ListingRepository)(nil)

func NewListingRepository(db *gorm.DB, timeout time.Duration) *ListingRepository {
	return &ListingRepository{db: db, timeout: timeout}
}

func (r *ListingRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *ListingRepository) writer(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Clauses(dbresolver.Write)
}

func (r *ListingRepository) reader(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Clauses(dbresolver.Read)
}

func (r *ListingRepository) ListReferenceData(ctx context.Context, kind string) ([]RefItem, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []model.ReferenceItem
	if err := r.reader(ctx).
		Where("kind = ?", kind).
		Order("position ASC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list reference %s: %w", kind, err)
	}

	items := make([]RefItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, RefItem{ID: strconv.FormatInt(row.ID, 10), Name: row.Name})
	}
	if kind != RefDestination {
		return items, nil
	}

	// 目的地还包含已有 Tour / Event 使用过的地点
	var locations []string
	for _, table := range []string{"tours", "events"} {
		var found []string
		if err := r.reader(ctx).
			Table(table).
			Where("deleted_at IS NULL AND location <> ''").
			Distinct().
			Pluck("location", &found).Error; err != nil {
			return nil, fmt.Errorf("list %s locations: %w", table, err)
		}
		locations = append(locations, found...)
	}
	return mergeDestinations(items, locations), nil
}

// mergeDestinations 在维护的目的地之后追加列表地点，忽略大小写去重，追加部分按名称排序
func mergeDestinations(items []RefItem, locations []string) []RefItem {
	seen := make(map[string]struct{}, len(items)+len(locations))
	for _, it := range items {
		seen[strings.ToLower(strings.TrimSpace(it.Name))] = struct{}{}
	}
	var extra []string
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		key := strings.ToLower(loc)
		if loc == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		extra = append(extra, loc)
	}
	sort.Strings(extra)
	for _, loc := range extra {
		items = append(items, RefItem{ID: loc, Name: loc})
	}
	return items
}

func (r *ListingRepository) Create(ctx context.Context, kind draft.Kind, p *draft.Payload) (*draft.Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	publicID, err := snowflake.NextID()
	if err != nil {
		return nil, fmt.Errorf("generate listing id: %w", err)
	}

	switch kind {
	case draft.KindTour:
		t := model.Tour{}
		applyTour(&t, p)
		t.PublicID = publicID
		if err := r.writer(ctx).Create(&t).Error; err != nil {
			return nil, fmt.Errorf("create tour: %w", err)
		}
		return tourRecord(&t, nil), nil
	case draft.KindEvent:
		e := model.Event{}
		applyEvent(&e, p)
		e.PublicID = publicID
		if err := r.writer(ctx).Create(&e).Error; err != nil {
			return nil, fmt.Errorf("create event: %w", err)
		}
		return eventRecord(&e, nil), nil
	default:
		return nil, fmt.Errorf("create: unknown kind %q", kind)
	}
}

func (r *ListingRepository) Update(ctx context.Context, kind draft.Kind, id string, p *draft.Payload) (*draft.Record, error) {
	publicID, ok := parsePublicID(id)
	if !ok {
		return nil, ErrNotFound
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	switch kind {
	case draft.KindTour:
		var t model.Tour
		if err := r.writer(ctx).Where("public_id = ?", publicID).First(&t).Error; err != nil {
			return nil, notFound(err)
		}
		applyTour(&t, p)
		if err := r.writer(ctx).Save(&t).Error; err != nil {
			return nil, fmt.Errorf("update tour %s: %w", id, err)
		}
		return tourRecord(&t, nil), nil
	case draft.KindEvent:
		var e model.Event
		if err := r.writer(ctx).Where("public_id = ?", publicID).First(&e).Error; err != nil {
			return nil, notFound(err)
		}
		applyEvent(&e, p)
		if err := r.writer(ctx).Save(&e).Error; err != nil {
			return nil, fmt.Errorf("update event %s: %w", id, err)
		}
		return eventRecord(&e, nil), nil
	default:
		return nil, fmt.Errorf("update: unknown kind %q", kind)
	}
}

func (r *ListingRepository) Remove(ctx context.Context, kind draft.Kind, id string) (bool, error) {
	publicID, ok := parsePublicID(id)
	if !ok {
		return false, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rowID, err := r.parentRowID(ctx, kind, publicID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("remove %s %s: %w", kind, id, err)
	}
	if err := r.writer(ctx).Where("listing_kind = ? AND parent_id = ?", string(kind), rowID).
		Delete(&model.ItineraryDay{}).Error; err != nil {
		return false, fmt.Errorf("remove itinerary of %s %s: %w", kind, id, err)
	}

	var res *gorm.DB
	if kind == draft.KindTour {
		res = r.writer(ctx).Delete(&model.Tour{}, rowID)
	} else {
		res = r.writer(ctx).Delete(&model.Event{}, rowID)
	}
	if res.Error != nil {
		return false, fmt.Errorf("remove %s %s: %w", kind, id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// parentRowID 由对外 ID 查出父记录主键，不存在时返回 ErrNotFound
func (r *ListingRepository) parentRowID(ctx context.Context, kind draft.Kind, publicID int64) (int64, error) {
	tx := r.writer(ctx).Select("id").Where("public_id = ?", publicID)
	switch kind {
	case draft.KindTour:
		var t model.Tour
		if err := tx.First(&t).Error; err != nil {
			return 0, notFound(err)
		}
		return t.ID, nil
	case draft.KindEvent:
		var e model.Event
		if err := tx.First(&e).Error; err != nil {
			return 0, notFound(err)
		}
		return e.ID, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", kind)
	}
}

func (r *ListingRepository) loadDays(ctx context.Context, kind draft.Kind, rowID int64) ([]model.ItineraryDay, error) {
	var days []model.ItineraryDay
	err := r.writer(ctx).
		Where("listing_kind = ? AND parent_id = ?", string(kind), rowID).
		Order("day_number ASC").
		Find(&days).Error
	return days, err
}

func (r *ListingRepository) GetByID(ctx context.Context, kind draft.Kind, id string) (*draft.Record, error) {
	publicID, ok := parsePublicID(id)
	if !ok {
		return nil, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	switch kind {
	case draft.KindTour:
		var t model.Tour
		if err := r.writer(ctx).Where("public_id = ?", publicID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("get tour %s: %w", id, err)
		}
		days, err := r.loadDays(ctx, kind, t.ID)
		if err != nil {
			return nil, fmt.Errorf("get itinerary of tour %s: %w", id, err)
		}
		return tourRecord(&t, days), nil
	case draft.KindEvent:
		var e model.Event
		if err := r.writer(ctx).Where("public_id = ?", publicID).First(&e).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("get event %s: %w", id, err)
		}
		days, err := r.loadDays(ctx, kind, e.ID)
		if err != nil {
			return nil, fmt.Errorf("get itinerary of event %s: %w", id, err)
		}
		return eventRecord(&e, days), nil
	default:
		return nil, fmt.Errorf("get: unknown kind %q", kind)
	}
}

func (r *ListingRepository) ReplaceItinerary(ctx context.Context, kind draft.Kind, parentID string, days []draft.DayPayload) error {
	publicID, ok := parsePublicID(parentID)
	if !ok {
		return ErrNotFound
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rowID, err := r.parentRowID(ctx, kind, publicID)
	if err != nil {
		return err
	}

	rows, err := itineraryRows(kind, rowID, days)
	if err != nil {
		return fmt.Errorf("encode itinerary: %w", err)
	}

	if err := r.writer(ctx).Unscoped().
		Where("listing_kind = ? AND parent_id = ?", string(kind), rowID).
		Delete(&model.ItineraryDay{}).Error; err != nil {
		return fmt.Errorf("clear itinerary of %s %s: %w", kind, parentID, err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.writer(ctx).CreateInBatches(rows, 50).Error; err != nil {
		return fmt.Errorf("insert itinerary of %s %s: %w", kind, parentID, err)
	}
	return nil
}

func (r *ListingRepository) List(ctx context.Context, kind draft.Kind, q ListQuery) ([]draft.Record, int64, error) {
	q = q.Normalized(kind)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	switch kind {
	case draft.KindTour:
		rows, total, err := listRows[model.Tour](r.reader(ctx), q, "category")
		if err != nil {
			return nil, 0, fmt.Errorf("list tours: %w", err)
		}
		out := make([]draft.Record, 0, len(rows))
		for i := range rows {
			out = append(out, *tourRecord(&rows[i], nil))
		}
		return out, total, nil
	case draft.KindEvent:
		rows, total, err := listRows[model.Event](r.reader(ctx), q, "event_type")
		if err != nil {
			return nil, 0, fmt.Errorf("list events: %w", err)
		}
		out := make([]draft.Record, 0, len(rows))
		for i := range rows {
			out = append(out, *eventRecord(&rows[i], nil))
		}
		return out, total, nil
	default:
		return nil, 0, fmt.Errorf("list: unknown kind %q", kind)
	}
}

func listRows[T any](tx *gorm.DB, q ListQuery, categoryColumn string) ([]T, int64, error) {
	tx = tx.Model(new(T))
	if q.Q != "" {
		like := "%" + escapeLike(q.Q) + "%"
		tx = tx.Where("title ILIKE ? OR location ILIKE ? OR slug ILIKE ?", like, like, like)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Featured != nil {
		tx = tx.Where("featured = ?", *q.Featured)
	}
	if q.Category != "" {
		tx = tx.Where(categoryColumn+" = ?", q.Category)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []T
	if err := tx.Order(q.Sort + " " + q.Dir).Order("id DESC").
		Offset(q.Offset()).Limit(q.PerPage).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
