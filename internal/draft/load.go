package draft

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record 网关返回的持久化记录。行程来自单独的子表，由网关合并进 Itinerary。
type Record struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Location    string     `json:"location"`
	Category    string     `json:"category,omitempty"`
	EventType   string     `json:"event_type,omitempty"`
	Duration    string     `json:"duration"`
	Featured    bool       `json:"featured"`
	Rating      float64    `json:"rating"`
	Status      string     `json:"status"`
	MinCapacity *int       `json:"min_capacity,omitempty"`
	MaxCapacity *int       `json:"max_capacity,omitempty"`
	StartDate   string     `json:"start_date,omitempty"`
	EndDate     string     `json:"end_date,omitempty"`
	Time        string     `json:"time,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`

	ImageURL     string   `json:"image_url"`
	Gallery      []string `json:"gallery"`
	Highlights   []string `json:"highlights"`
	Included     []string `json:"included"`
	Excluded     []string `json:"excluded"`
	Requirements []string `json:"requirements"`
	FAQs         []FAQ    `json:"faqs"`

	Itinerary []RecordDay `json:"itinerary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordDay 持久化的行程日。Meals / Activities 保留原始 JSON，
// 旧数据里可能是逗号分隔的字符串而不是数组。
type RecordDay struct {
	DayNumber     int             `json:"day_number"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Location      string          `json:"location"`
	Distance      string          `json:"distance"`
	Difficulty    string          `json:"difficulty"`
	Accommodation string          `json:"accommodation"`
	Meals         json.RawMessage `json:"meals"`
	Activities    json.RawMessage `json:"activities"`
}

// FromRecord 由持久化记录构造编辑草稿。旧格式只在这里兼容一次，之后草稿字段类型固定。
func FromRecord(rec *Record) *Draft {
	d := New(rec.Kind)
	d.ID = rec.ID
	d.Title = rec.Title
	d.Slug = rec.Slug
	d.SlugTouched = strings.TrimSpace(rec.Slug) != ""
	d.Description = rec.Description
	d.Price = formatNumber(rec.Price)
	d.Location = rec.Location
	d.Category = rec.Category
	if rec.Kind == KindEvent {
		d.Category = rec.EventType
	}
	d.Duration = rec.Duration
	d.Featured = rec.Featured
	if rec.Rating > 0 {
		d.Rating = formatNumber(rec.Rating)
	}
	if rec.MinCapacity != nil {
		d.MinCapacity = strconv.Itoa(*rec.MinCapacity)
	}
	if rec.MaxCapacity != nil {
		d.MaxCapacity = strconv.Itoa(*rec.MaxCapacity)
	}
	if rec.Status != "" {
		d.Status = rec.Status
	}
	d.ImageURL = rec.ImageURL

	d.Gallery = append(d.Gallery, rec.Gallery...)
	d.Highlights = append(d.Highlights, rec.Highlights...)
	d.Included = append(d.Included, rec.Included...)
	d.Excluded = append(d.Excluded, rec.Excluded...)
	d.Requirements = append(d.Requirements, rec.Requirements...)
	d.FAQs = append(d.FAQs, rec.FAQs...)

	if rec.Kind == KindEvent {
		d.StartDate = rec.StartDate
		d.EndDate = rec.EndDate
		d.Time = rec.Time
		if d.Time == "" && rec.StartAt != nil {
			d.Time = rec.StartAt.Format("15:04")
		}
		d.syncDuration()
	}

	days := append([]RecordDay(nil), rec.Itinerary...)
	sort.SliceStable(days, func(i, j int) bool { return days[i].DayNumber < days[j].DayNumber })
	for i, rd := range days {
		// 存储里的编号可能不连续，按位置重排，默认标题跟随新编号
		title := rd.Title
		if title == defaultDayTitle(rd.DayNumber) {
			title = defaultDayTitle(i + 1)
		}
		d.Itinerary = append(d.Itinerary, Day{
			DayNumber:     i + 1,
			Title:         title,
			Description:   rd.Description,
			Location:      rd.Location,
			Distance:      rd.Distance,
			Difficulty:    Difficulty(rd.Difficulty),
			Accommodation: rd.Accommodation,
			Meals:         decodeLegacyList(rd.Meals),
			Activities:    decodeLegacyList(rd.Activities),
		})
	}
	return d
}

// decodeLegacyList 接受 JSON 数组、JSON 字符串（逗号分隔）或 null。
func decodeLegacyList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return compact(list)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return compact(strings.Split(s, ","))
	}
	return []string{}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
