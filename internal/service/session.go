package service

import (
	"time"

	"TourAdmin/internal/draft"
)

// Session 一个正在进行的创建或编辑表单
type Session struct {
	ID        string        `json:"id"`
	Kind      draft.Kind    `json:"kind"`
	ListingID string        `json:"listing_id,omitempty"`
	Draft     *draft.Draft  `json:"draft"`
	Wizard    *draft.Wizard `json:"wizard"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Snapshot 返回给前端的会话视图
type Snapshot struct {
	SessionID      string         `json:"session_id"`
	Kind           draft.Kind     `json:"kind"`
	ListingID      string         `json:"listing_id,omitempty"`
	Step           draft.Step     `json:"step"`
	Steps          []draft.Step   `json:"steps"`
	Completed      []draft.Step   `json:"completed"`
	IsLast         bool           `json:"is_last"`
	EditMode       bool           `json:"edit_mode"`
	DurationLocked bool           `json:"duration_locked"`
	Draft          *draft.Draft   `json:"draft"`
	Errors         draft.ErrorMap `json:"errors"`
	Warnings       draft.ErrorMap `json:"warnings"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (s *Session) Snapshot() *Snapshot {
	errs := s.Draft.Errors
	if errs == nil {
		errs = draft.ErrorMap{}
	}
	return &Snapshot{
		SessionID:      s.ID,
		Kind:           s.Kind,
		ListingID:      s.ListingID,
		Step:           s.Wizard.Current,
		Steps:          draft.Sequence(s.Kind),
		Completed:      s.Wizard.Completed,
		IsLast:         s.Wizard.IsLast(),
		EditMode:       s.Wizard.Edit,
		DurationLocked: s.Draft.DurationLocked(),
		Draft:          s.Draft,
		Errors:         errs,
		Warnings:       draft.Warnings(s.Kind, s.Wizard.Current, s.Draft),
		UpdatedAt:      s.UpdatedAt,
	}
}
