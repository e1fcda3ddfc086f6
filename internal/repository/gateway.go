package repository

import (
	"context"
	"errors"
	"strings"

	"TourAdmin/internal/draft"
)

// ErrNotFound 记录不存在或已删除
var ErrNotFound = errors.New("repository: record not found")

// 参考数据种类
const (
	RefCategory    = "category"
	RefEventType   = "event_type"
	RefDestination = "destination"
)

// RefItem 下拉框条目
type RefItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Gateway 列表数据的持久化网关。所有方法都是单次往返，失败不重试。
type Gateway interface {
	// ListReferenceData destination 会合并列表中已使用的地点。
	ListReferenceData(ctx context.Context, kind string) ([]RefItem, error)
	Create(ctx context.Context, kind draft.Kind, p *draft.Payload) (*draft.Record, error)
	Update(ctx context.Context, kind draft.Kind, id string, p *draft.Payload) (*draft.Record, error)
	Remove(ctx context.Context, kind draft.Kind, id string) (bool, error)
	// GetByID 不存在时返回 nil, nil。会合并行程子表。
	GetByID(ctx context.Context, kind draft.Kind, id string) (*draft.Record, error)
	// ReplaceItinerary 先删后写，只在父记录写入成功后调用。
	ReplaceItinerary(ctx context.Context, kind draft.Kind, parentID string, days []draft.DayPayload) error
	List(ctx context.Context, kind draft.Kind, q ListQuery) ([]draft.Record, int64, error)
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ListQuery 列表页的搜索、筛选、排序与分页参数
type ListQuery struct {
	Q        string `json:"q"`
	Sort     string `json:"sort"`
	Dir      string `json:"dir"`
	Status   string `json:"status"`
	Category string `json:"category"`
	Featured *bool  `json:"featured,omitempty"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
}

var sortColumns = map[string]bool{
	"title":      true,
	"price":      true,
	"rating":     true,
	"location":   true,
	"created_at": true,
	"updated_at": true,
}

// Normalized 补齐默认值，排序字段不在白名单内时回落到 created_at
func (q ListQuery) Normalized(kind draft.Kind) ListQuery {
	q.Q = strings.TrimSpace(q.Q)
	q.Sort = strings.ToLower(strings.TrimSpace(q.Sort))
	if !sortColumns[q.Sort] && !(kind == draft.KindEvent && q.Sort == "start_date") {
		q.Sort = "created_at"
	}
	q.Dir = strings.ToLower(strings.TrimSpace(q.Dir))
	if q.Dir != "asc" {
		q.Dir = "desc"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
