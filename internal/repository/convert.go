package repository

import (
	"encoding/json"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"TourAdmin/internal/draft"
	"TourAdmin/internal/model"
)

const startAtLayout = "2006-01-02T15:04:05"

func baseFromPayload(p *draft.Payload) model.ListingBase {
	faqs := make([]model.FAQ, 0, len(p.FAQs))
	for _, f := range p.FAQs {
		faqs = append(faqs, model.FAQ{Question: f.Question, Answer: f.Answer})
	}
	return model.ListingBase{
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        p.Price,
		Location:     p.Location,
		Duration:     p.Duration,
		Featured:     p.Featured,
		Rating:       p.Rating,
		Status:       p.Status,
		ImageURL:     p.ImageURL,
		Gallery:      p.Gallery,
		Highlights:   p.Highlights,
		Included:     p.Included,
		Excluded:     p.Excluded,
		Requirements: p.Requirements,
		FAQs:         faqs,
	}
}

// applyTour 用载荷覆盖可编辑字段，保留主键与创建时间
func applyTour(t *model.Tour, p *draft.Payload) {
	base := baseFromPayload(p)
	base.BaseModel = t.BaseModel
	base.PublicID = t.PublicID
	t.ListingBase = base
	t.Category = p.Category
	t.MinGroupSize = p.MinGroupSize
	t.MaxGroupSize = p.MaxGroupSize
}

func applyEvent(e *model.Event, p *draft.Payload) {
	base := baseFromPayload(p)
	base.BaseModel = e.BaseModel
	base.PublicID = e.PublicID
	e.ListingBase = base
	e.EventType = p.EventType
	e.StartDate = p.StartDate
	e.EndDate = p.EndDate
	e.Time = p.Time
	e.MinAttendees = p.MinAttendees
	e.MaxAttendees = p.MaxAttendees
	e.StartAt = nil
	if p.StartAt != "" {
		if at, err := time.Parse(startAtLayout, p.StartAt); err == nil {
			e.StartAt = &at
		}
	}
}

func baseRecord(kind draft.Kind, b *model.ListingBase) *draft.Record {
	faqs := make([]draft.FAQ, 0, len(b.FAQs))
	for _, f := range b.FAQs {
		faqs = append(faqs, draft.FAQ{Question: f.Question, Answer: f.Answer})
	}
	return &draft.Record{
		ID:           strconv.FormatInt(b.PublicID, 10),
		Kind:         kind,
		Title:        b.Title,
		Slug:         b.Slug,
		Description:  b.Description,
		Price:        b.Price,
		Location:     b.Location,
		Duration:     b.Duration,
		Featured:     b.Featured,
		Rating:       b.Rating,
		Status:       b.Status,
		ImageURL:     b.ImageURL,
		Gallery:      nonNil(b.Gallery),
		Highlights:   nonNil(b.Highlights),
		Included:     nonNil(b.Included),
		Excluded:     nonNil(b.Excluded),
		Requirements: nonNil(b.Requirements),
		FAQs:         faqs,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func tourRecord(t *model.Tour, days []model.ItineraryDay) *draft.Record {
	rec := baseRecord(draft.KindTour, &t.ListingBase)
	rec.Category = t.Category
	rec.MinCapacity = t.MinGroupSize
	rec.MaxCapacity = t.MaxGroupSize
	rec.Itinerary = recordDays(days)
	return rec
}

func eventRecord(e *model.Event, days []model.ItineraryDay) *draft.Record {
	rec := baseRecord(draft.KindEvent, &e.ListingBase)
	rec.EventType = e.EventType
	rec.StartDate = e.StartDate
	rec.EndDate = e.EndDate
	rec.Time = e.Time
	rec.StartAt = e.StartAt
	rec.MinCapacity = e.MinAttendees
	rec.MaxCapacity = e.MaxAttendees
	rec.Itinerary = recordDays(days)
	return rec
}

func recordDays(days []model.ItineraryDay) []draft.RecordDay {
	var out []draft.RecordDay
	for _, d := range days {
		out = append(out, draft.RecordDay{
			DayNumber:     d.DayNumber,
			Title:         d.Title,
			Description:   d.Description,
			Location:      d.Location,
			Distance:      d.Distance,
			Difficulty:    d.Difficulty,
			Accommodation: d.Accommodation,
			Meals:         json.RawMessage(d.Meals),
			Activities:    json.RawMessage(d.Activities),
		})
	}
	return out
}

func itineraryRows(kind draft.Kind, parentID int64, days []draft.DayPayload) ([]model.ItineraryDay, error) {
	rows := make([]model.ItineraryDay, 0, len(days))
	for _, d := range days {
		meals, err := json.Marshal(nonNil(d.Meals))
		if err != nil {
			return nil, err
		}
		activities, err := json.Marshal(nonNil(d.Activities))
		if err != nil {
			return nil, err
		}
		rows = append(rows, model.ItineraryDay{
			ListingKind:   string(kind),
			ParentID:      parentID,
			DayNumber:     d.DayNumber,
			Title:         d.Title,
			Description:   d.Description,
			Location:      d.Location,
			Distance:      d.Distance,
			Difficulty:    d.Difficulty,
			Accommodation: d.Accommodation,
			Meals:         datatypes.JSON(meals),
			Activities:    datatypes.JSON(activities),
		})
	}
	return rows, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// parsePublicID 非法 ID 视为不存在
func parsePublicID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
