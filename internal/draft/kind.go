package draft

import "strings"

// Kind 表示草稿对应的实体类型。
type Kind string

const (
	KindTour  Kind = "tour"
	KindEvent Kind = "event"
)

// ParseKind 解析路径或请求中的实体类型，兼容复数形式（tours / events）。
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tour", "tours":
		return KindTour, true
	case "event", "events":
		return KindEvent, true
	default:
		return "", false
	}
}

func (k Kind) Valid() bool {
	return k == KindTour || k == KindEvent
}

// Status 列表发布状态
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func validStatus(s string) bool {
	switch Status(s) {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Difficulty 行程日难度
type Difficulty string

const (
	DifficultyEasy          Difficulty = "easy"
	DifficultyModerate      Difficulty = "moderate"
	DifficultyChallenging   Difficulty = "challenging"
	DifficultyDifficult     Difficulty = "difficult"
	DifficultyNotApplicable Difficulty = "not-applicable"
)

// ValidDifficulty 空值视为未填写，同样合法。
func ValidDifficulty(d Difficulty) bool {
	switch d {
	case "", DifficultyEasy, DifficultyModerate, DifficultyChallenging, DifficultyDifficult, DifficultyNotApplicable:
		return true
	}
	return false
}

// categoryField 返回分类字段在该实体下的名称。
func categoryField(k Kind) string {
	if k == KindEvent {
		return "event_type"
	}
	return "category"
}

// capacityFields 返回容量上下限字段名。
func capacityFields(k Kind) (string, string) {
	if k == KindEvent {
		return "min_attendees", "max_attendees"
	}
	return "min_group_size", "max_group_size"
}
