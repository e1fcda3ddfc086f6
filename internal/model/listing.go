package model

import (
	"time"

	"gorm.io/datatypes"
)

// FAQ 问答条目，整体以 jsonb 存储
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ListingBase Tour 与 Event 共有的字段。PublicID 为对外暴露的雪花 ID。
type ListingBase struct {
	BaseModel
	PublicID    int64   `gorm:"uniqueIndex;not null" json:"public_id"`
	Title       string  `gorm:"type:varchar(200);not null" json:"title"`
	Slug        string  `gorm:"type:varchar(220);index;not null" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	Location    string  `gorm:"type:varchar(200);index" json:"location"`
	Duration    string  `gorm:"type:varchar(64)" json:"duration"`
	Featured    bool    `gorm:"not null;default:false;index" json:"featured"`
	Rating      float64 `gorm:"type:numeric(2,1);not null;default:0" json:"rating"`
	Status      string  `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	ImageURL    string  `gorm:"type:text;not null;default:''" json:"image_url"`

	Gallery      []string `gorm:"type:jsonb;serializer:json" json:"gallery"`
	Highlights   []string `gorm:"type:jsonb;serializer:json" json:"highlights"`
	Included     []string `gorm:"type:jsonb;serializer:json" json:"included"`
	Excluded     []string `gorm:"type:jsonb;serializer:json" json:"excluded"`
	Requirements []string `gorm:"type:jsonb;serializer:json" json:"requirements"`
	FAQs         []FAQ    `gorm:"column:faqs;type:jsonb;serializer:json" json:"faqs"`
}

// Tour 多日行程产品，行程存放在 itinerary_days
type Tour struct {
	ListingBase
	Category     string `gorm:"type:varchar(100);index" json:"category"`
	MinGroupSize *int   `json:"min_group_size,omitempty"`
	MaxGroupSize *int   `json:"max_group_size,omitempty"`
}

// Event 有固定日期的活动
type Event struct {
	ListingBase
	EventType    string     `gorm:"type:varchar(100);index" json:"event_type"`
	StartDate    string     `gorm:"type:varchar(10);index" json:"start_date"`
	EndDate      string     `gorm:"type:varchar(10)" json:"end_date"`
	Time         string     `gorm:"type:varchar(8)" json:"time"`
	StartAt      *time.Time `json:"start_at,omitempty"`
	MinAttendees *int       `json:"min_attendees,omitempty"`
	MaxAttendees *int       `json:"max_attendees,omitempty"`
}

// ItineraryDay Tour 或 Event 的子记录，按 (listing_kind, parent_id) 归属父记录。
// meals / activities 保留原始 JSON，早期数据中这两列是逗号分隔的字符串。
type ItineraryDay struct {
	BaseModel
	ListingKind   string         `gorm:"type:varchar(16);not null;default:'tour';index:idx_itinerary_parent" json:"listing_kind"`
	ParentID      int64          `gorm:"not null;index:idx_itinerary_parent" json:"parent_id"`
	DayNumber     int            `gorm:"not null" json:"day_number"`
	Title         string         `gorm:"type:varchar(200)" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Location      string         `gorm:"type:varchar(200)" json:"location"`
	Distance      string         `gorm:"type:varchar(64)" json:"distance"`
	Difficulty    string         `gorm:"type:varchar(32)" json:"difficulty"`
	Accommodation string         `gorm:"type:varchar(200)" json:"accommodation"`
	Meals         datatypes.JSON `gorm:"type:jsonb" json:"meals"`
	Activities    datatypes.JSON `gorm:"type:jsonb" json:"activities"`
}

// ReferenceItem 下拉框数据：分类、活动类型、目的地
type ReferenceItem struct {
	BaseModel
	Kind     string `gorm:"type:varchar(32);not null;uniqueIndex:idx_reference_kind_name" json:"kind"`
	Name     string `gorm:"type:varchar(120);not null;uniqueIndex:idx_reference_kind_name" json:"name"`
	Position int    `gorm:"not null;default:0" json:"position"`
}

func (Tour) TableName() string          { return "tours" }
func (Event) TableName() string         { return "events" }
func (ItineraryDay) TableName() string  { return "itinerary_days" }
func (ReferenceItem) TableName() string { return "reference_items" }
