package draft

import (
	"strconv"
	"strings"
)

// Day 行程中的一天。DayNumber 始终等于其在行程中的位置（从 1 开始）。
type Day struct {
	DayNumber     int        `json:"day_number"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	Distance      string     `json:"distance"`
	Difficulty    Difficulty `json:"difficulty"`
	Accommodation string     `json:"accommodation"`
	Meals         []string   `json:"meals"`
	Activities    []string   `json:"activities"`
}

// FAQ 问答条目
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Draft 表示正在创建或编辑中的 Tour / Event。
//
// 数值类字段保留表单中的原始字符串，提交时由 Normalize 统一转换。
// 仅 Event 使用 StartDate / EndDate / Time。Itinerary 两类都有，Tour 必填，Event 可选。
type Draft struct {
	Kind        Kind   `json:"kind"`
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Duration    string `json:"duration"`
	Featured    bool   `json:"featured"`
	Rating      string `json:"rating"`
	MinCapacity string `json:"min_capacity"`
	MaxCapacity string `json:"max_capacity"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Time        string `json:"time,omitempty"`
	Status      string `json:"status"`

	ImageURL string   `json:"image_url"`
	Gallery  []string `json:"gallery"`

	Highlights   []string `json:"highlights"`
	Included     []string `json:"included"`
	Excluded     []string `json:"excluded"`
	Requirements []string `json:"requirements"`

	Itinerary []Day `json:"itinerary"`
	FAQs      []FAQ `json:"faqs"`

	// SlugTouched 为 true 时标题变化不再覆盖 slug。
	SlugTouched bool     `json:"slug_touched"`
	Errors      ErrorMap `json:"errors,omitempty"`
}

// New 创建带默认值的空草稿。
func New(kind Kind) *Draft {
	return &Draft{
		Kind:         kind,
		Status:       string(StatusDraft),
		Gallery:      []string{},
		Highlights:   []string{},
		Included:     []string{},
		Excluded:     []string{},
		Requirements: []string{},
		Itinerary:    []Day{},
		FAQs:         []FAQ{},
		Errors:       ErrorMap{},
	}
}

// SetField 按字段名赋值标量字段，并清除该字段已有的校验错误。
// 返回 false 表示字段名未知或取值无法解析（例如 featured 不是布尔值）。
func (d *Draft) SetField(name, value string) bool {
	name = canonicalField(d.Kind, name)
	switch name {
	case "title":
		d.Title = value
		if !d.SlugTouched {
			d.Slug = DeriveSlug(value)
		}
	case "slug":
		d.Slug = value
		d.SlugTouched = strings.TrimSpace(value) != ""
	case "description":
		d.Description = value
	case "price":
		d.Price = value
	case "location":
		d.Location = value
	case "category", "event_type":
		d.Category = value
	case "duration":
		d.Duration = value
	case "featured":
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return false
		}
		d.Featured = b
	case "rating":
		d.Rating = value
	case "min_group_size", "min_attendees":
		d.MinCapacity = value
	case "max_group_size", "max_attendees":
		d.MaxCapacity = value
	case "start_date":
		if d.Kind != KindEvent {
			return false
		}
		d.StartDate = value
	case "end_date":
		if d.Kind != KindEvent {
			return false
		}
		d.EndDate = value
	case "time":
		if d.Kind != KindEvent {
			return false
		}
		d.Time = value
	case "status":
		if !validStatus(value) {
			return false
		}
		d.Status = value
	case "image_url":
		d.ImageURL = value
	default:
		return false
	}

	d.clearError(name)
	d.syncDuration()
	return true
}

// canonicalField 把通用字段名映射为实体对应的字段名。
func canonicalField(k Kind, name string) string {
	name = strings.TrimSpace(name)
	minName, maxName := capacityFields(k)
	switch name {
	case "category", "event_type":
		return categoryField(k)
	case "min_capacity", "min_group_size", "min_attendees":
		return minName
	case "max_capacity", "max_group_size", "max_attendees":
		return maxName
	}
	return name
}

func (d *Draft) clearError(path string) {
	if d.Errors != nil {
		delete(d.Errors, path)
	}
}

// clearErrorsWithPrefix 行程或 FAQ 结构变化后，旧的下标路径已失效。
func (d *Draft) clearErrorsWithPrefix(prefix string) {
	for k := range d.Errors {
		if k == prefix || strings.HasPrefix(k, prefix+"[") || strings.HasPrefix(k, prefix+".") {
			delete(d.Errors, k)
		}
	}
}

// syncDuration 活动的起止日期都有效时，时长由日期计算并覆盖手工输入。
func (d *Draft) syncDuration() {
	if d.Kind != KindEvent {
		return
	}
	if dur, ok := DeriveDuration(d.StartDate, d.EndDate); ok {
		d.Duration = dur
	}
}

// DurationLocked 报告时长输入框是否应被禁用。
func (d *Draft) DurationLocked() bool {
	if d.Kind != KindEvent {
		return false
	}
	_, ok := DeriveDuration(d.StartDate, d.EndDate)
	return ok
}
