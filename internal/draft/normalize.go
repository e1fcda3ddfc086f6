package draft

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidPrice 价格无法解析为数字，提交必须中止。
var ErrInvalidPrice = errors.New("draft: price is not a number")

// Payload 交给持久化网关的最终数据。分类与容量字段按实体类型使用不同的键。
type Payload struct {
	Kind        Kind    `json:"-"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Location    string  `json:"location"`
	Category    string  `json:"category,omitempty"`
	EventType   string  `json:"event_type,omitempty"`
	Duration    string  `json:"duration"`
	Featured    bool    `json:"featured"`
	Rating      float64 `json:"rating"`
	Status      string  `json:"status"`

	MinGroupSize *int `json:"min_group_size,omitempty"`
	MaxGroupSize *int `json:"max_group_size,omitempty"`
	MinAttendees *int `json:"min_attendees,omitempty"`
	MaxAttendees *int `json:"max_attendees,omitempty"`

	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Time      string `json:"time,omitempty"`
	StartAt   string `json:"start_at,omitempty"`

	ImageURL     string   `json:"image_url"`
	Gallery      []string `json:"gallery"`
	Highlights   []string `json:"highlights"`
	Included     []string `json:"included"`
	Excluded     []string `json:"excluded"`
	Requirements []string `json:"requirements"`
	FAQs         []FAQ    `json:"faqs"`

	// Itinerary 不随父记录写入，父记录拿到 ID 后通过 ItineraryFor 单独写。
	Itinerary []DayPayload `json:"-"`
}

// DayPayload 行程子记录
type DayPayload struct {
	ParentID      string   `json:"parent_id"`
	DayNumber     int      `json:"day_number"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	Distance      string   `json:"distance"`
	Difficulty    string   `json:"difficulty"`
	Accommodation string   `json:"accommodation"`
	Meals         []string `json:"meals"`
	Activities    []string `json:"activities"`
}

// ItineraryFor 返回挂上父记录 ID 的行程。
func (p *Payload) ItineraryFor(parentID string) []DayPayload {
	out := make([]DayPayload, len(p.Itinerary))
	for i, day := range p.Itinerary {
		day.ParentID = parentID
		day.Meals = append([]string{}, day.Meals...)
		day.Activities = append([]string{}, day.Activities...)
		out[i] = day
	}
	return out
}

// Normalize 把草稿转换为提交载荷，不修改草稿本身。
func Normalize(d *Draft) (*Payload, error) {
	p := &Payload{
		Kind:        d.Kind,
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Slug:        strings.TrimSpace(d.Slug),
		Location:    strings.TrimSpace(d.Location),
		Duration:    strings.TrimSpace(d.Duration),
		Featured:    d.Featured,
		Status:      strings.TrimSpace(d.Status),
		ImageURL:    strings.TrimSpace(d.ImageURL),
	}
	if p.Slug == "" {
		p.Slug = DeriveSlug(p.Title)
	}

	p.Gallery = compact(d.Gallery)
	p.Highlights = compact(d.Highlights)
	p.Included = compact(d.Included)
	p.Excluded = compact(d.Excluded)
	p.Requirements = compact(d.Requirements)

	price, err := strconv.ParseFloat(strings.TrimSpace(d.Price), 64)
	if err != nil {
		return nil, ErrInvalidPrice
	}
	p.Price = price
	if r, err := strconv.ParseFloat(strings.TrimSpace(d.Rating), 64); err == nil {
		p.Rating = r
	}
	minCap, maxCap := parseOptionalInt(d.MinCapacity), parseOptionalInt(d.MaxCapacity)

	switch d.Kind {
	case KindEvent:
		p.EventType = strings.TrimSpace(d.Category)
		p.MinAttendees, p.MaxAttendees = minCap, maxCap
		p.StartDate = strings.TrimSpace(d.StartDate)
		p.EndDate = strings.TrimSpace(d.EndDate)
		p.Time = strings.TrimSpace(d.Time)
		if at, ok := CombineDateTime(d.StartDate, d.Time); ok {
			p.StartAt = at
		}
		if dur, ok := DeriveDuration(d.StartDate, d.EndDate); ok {
			p.Duration = dur
		}
	default:
		p.Category = strings.TrimSpace(d.Category)
		p.MinGroupSize, p.MaxGroupSize = minCap, maxCap
	}
	p.Itinerary = normalizeItinerary(d.Itinerary)

	p.FAQs = make([]FAQ, 0, len(d.FAQs))
	for _, f := range d.FAQs {
		if blank(f.Question) && blank(f.Answer) {
			continue
		}
		p.FAQs = append(p.FAQs, FAQ{Question: strings.TrimSpace(f.Question), Answer: strings.TrimSpace(f.Answer)})
	}

	if p.Status == "" {
		p.Status = string(StatusDraft)
	}
	return p, nil
}

func normalizeItinerary(days []Day) []DayPayload {
	out := make([]DayPayload, 0, len(days))
	for i, day := range days {
		out = append(out, DayPayload{
			DayNumber:     i + 1,
			Title:         strings.TrimSpace(day.Title),
			Description:   strings.TrimSpace(day.Description),
			Location:      strings.TrimSpace(day.Location),
			Distance:      strings.TrimSpace(day.Distance),
			Difficulty:    string(day.Difficulty),
			Accommodation: strings.TrimSpace(day.Accommodation),
			Meals:         compact(day.Meals),
			Activities:    compact(day.Activities),
		})
	}
	return out
}

// compact 去掉首尾空白并丢弃空项，始终返回非 nil 切片。
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseOptionalInt(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &n
}
