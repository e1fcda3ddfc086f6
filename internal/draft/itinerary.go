package draft

import (
	"fmt"
	"strings"
)

// Direction 行程日移动方向
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func defaultDayTitle(n int) string {
	return fmt.Sprintf("Day %d", n)
}

func (d *Draft) validDay(i int) bool {
	return i >= 0 && i < len(d.Itinerary)
}

// AddDay 追加一天，标题默认为 "Day N"。
func (d *Draft) AddDay() {
	n := len(d.Itinerary) + 1
	d.Itinerary = append(d.Itinerary, Day{
		DayNumber:  n,
		Title:      defaultDayTitle(n),
		Meals:      []string{},
		Activities: []string{},
	})
	d.clearErrorsWithPrefix("itinerary")
}

// RemoveDay 删除第 i 天并重新编号。
func (d *Draft) RemoveDay(i int) {
	if !d.validDay(i) {
		return
	}
	d.Itinerary = append(d.Itinerary[:i], d.Itinerary[i+1:]...)
	d.renumber()
	d.clearErrorsWithPrefix("itinerary")
}

// ReorderDay 与相邻一天交换位置，已在边界时不做任何事。
func (d *Draft) ReorderDay(i int, dir Direction) {
	if !d.validDay(i) {
		return
	}
	j := i - 1
	if dir == DirectionDown {
		j = i + 1
	} else if dir != DirectionUp {
		return
	}
	if !d.validDay(j) {
		return
	}
	d.Itinerary[i], d.Itinerary[j] = d.Itinerary[j], d.Itinerary[i]
	d.renumber()
	d.clearErrorsWithPrefix("itinerary")
}

// renumber 让 day_number 与位置一致；仍是默认标题的天跟随新编号，自定义标题保持不变。
func (d *Draft) renumber() {
	for idx := range d.Itinerary {
		day := &d.Itinerary[idx]
		n := idx + 1
		if day.Title == defaultDayTitle(day.DayNumber) {
			day.Title = defaultDayTitle(n)
		}
		day.DayNumber = n
	}
}

// UpdateDay 修改某一天的标量字段。未知字段或非法难度返回 false。
func (d *Draft) UpdateDay(i int, field, value string) bool {
	if !d.validDay(i) {
		return false
	}
	day := &d.Itinerary[i]
	switch field {
	case "title":
		day.Title = value
	case "description":
		day.Description = value
	case "location":
		day.Location = value
	case "distance":
		day.Distance = value
	case "accommodation":
		day.Accommodation = value
	case "difficulty":
		if !ValidDifficulty(Difficulty(value)) {
			return false
		}
		day.Difficulty = Difficulty(value)
	default:
		return false
	}
	d.clearError(fmt.Sprintf("itinerary[%d].%s", i, field))
	d.clearError("itinerary")
	return true
}

// SetMeals 覆盖某一天的餐食集合，去掉空白与重复项。
func (d *Draft) SetMeals(i int, meals []string) {
	if !d.validDay(i) {
		return
	}
	out := make([]string, 0, len(meals))
	seen := make(map[string]struct{}, len(meals))
	for _, m := range meals {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	d.Itinerary[i].Meals = out
}

// AddActivity 给某一天追加活动，空白文本被静默忽略。
func (d *Draft) AddActivity(i int, text string) {
	if !d.validDay(i) {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	d.Itinerary[i].Activities = append(d.Itinerary[i].Activities, text)
}

// RemoveActivity 删除某一天的第 idx 个活动。
func (d *Draft) RemoveActivity(i, idx int) {
	if !d.validDay(i) {
		return
	}
	acts := d.Itinerary[i].Activities
	if idx < 0 || idx >= len(acts) {
		return
	}
	d.Itinerary[i].Activities = append(acts[:idx], acts[idx+1:]...)
}
