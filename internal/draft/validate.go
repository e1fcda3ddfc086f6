package draft

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrorMap 字段路径 -> 错误信息，例如 "title"、"itinerary[2].title"、"faqs[0].answer"。
type ErrorMap map[string]string

// Empty 报告是否没有任何错误。
func (m ErrorMap) Empty() bool { return len(m) == 0 }

// Merge 合并另一组错误，已存在的路径保持原值。
func (m ErrorMap) Merge(other ErrorMap) {
	for k, v := range other {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
}

// Fields 返回排序后的字段路径，便于日志与稳定输出。
func (m ErrorMap) Fields() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Validate 校验单个步骤，纯函数，不修改草稿。
func Validate(k Kind, step Step, d *Draft) ErrorMap {
	errs := ErrorMap{}
	switch step {
	case StepBasic:
		validateBasic(k, d, errs)
	case StepImages:
		if k == KindEvent && blank(d.ImageURL) {
			errs["image_url"] = "Main image is required"
		}
	case StepItinerary:
		validateItinerary(d, true, errs)
	case StepDetails:
		if k == KindEvent && !blank(d.Time) {
			if _, ok := parseClock(d.Time); !ok {
				errs["time"] = "Time must be in HH:MM format"
			}
		}
		// Event 的行程可选，填了就按同样规则校验
		if k == KindEvent {
			validateItinerary(d, false, errs)
		}
	case StepFAQs:
		validateFAQs(d, errs)
	}
	return errs
}

// Warnings 返回不阻塞流程的提示。Tour 没有主图时只提示，不阻止下一步。
func Warnings(k Kind, step Step, d *Draft) ErrorMap {
	w := ErrorMap{}
	if step == StepImages && k == KindTour && blank(d.ImageURL) {
		w["image_url"] = "No main image selected; the listing will be shown without a cover"
	}
	return w
}

// ValidateAll 提交前合并所有步骤的错误。
func ValidateAll(d *Draft) ErrorMap {
	errs := ErrorMap{}
	for _, step := range Sequence(d.Kind) {
		errs.Merge(Validate(d.Kind, step, d))
	}
	return errs
}

func validateBasic(k Kind, d *Draft, errs ErrorMap) {
	if blank(d.Title) {
		errs["title"] = "Title is required"
	}
	if slug := strings.TrimSpace(d.Slug); slug != "" && DeriveSlug(slug) != slug {
		errs["slug"] = "Slug may only contain lowercase letters, numbers and hyphens"
	}
	if blank(d.Description) {
		errs["description"] = "Description is required"
	}
	if blank(d.Price) {
		errs["price"] = "Price is required"
	} else if p, err := strconv.ParseFloat(strings.TrimSpace(d.Price), 64); err != nil {
		errs["price"] = "Price must be a number"
	} else if p < 0 {
		errs["price"] = "Price cannot be negative"
	}
	if blank(d.Location) {
		errs["location"] = "Location is required"
	}
	if cat := categoryField(k); blank(d.Category) {
		if k == KindEvent {
			errs[cat] = "Event type is required"
		} else {
			errs[cat] = "Category is required"
		}
	}

	if !blank(d.Rating) {
		r, err := strconv.ParseFloat(strings.TrimSpace(d.Rating), 64)
		if err != nil || r < 1 || r > 5 {
			errs["rating"] = "Rating must be between 1.0 and 5.0"
		}
	}
	validateCapacity(k, d, errs)

	if k == KindEvent {
		validateDates(d, errs)
	}
}

func validateCapacity(k Kind, d *Draft, errs ErrorMap) {
	minName, maxName := capacityFields(k)
	minV, minOK := parseCapacity(d.MinCapacity, minName, errs)
	maxV, maxOK := parseCapacity(d.MaxCapacity, maxName, errs)
	if minOK && maxOK && maxV < minV {
		errs[maxName] = fmt.Sprintf("Must be at least %d", minV)
	}
}

func parseCapacity(raw, field string, errs ErrorMap) (int, bool) {
	if blank(raw) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		errs[field] = "Must be a non-negative whole number"
		return 0, false
	}
	return n, true
}

func validateDates(d *Draft, errs ErrorMap) {
	start, startErr := time.Parse(dateLayout, strings.TrimSpace(d.StartDate))
	switch {
	case blank(d.StartDate):
		errs["start_date"] = "Start date is required"
	case startErr != nil:
		errs["start_date"] = "Start date must be YYYY-MM-DD"
	}
	if blank(d.EndDate) {
		return
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(d.EndDate))
	if err != nil {
		errs["end_date"] = "End date must be YYYY-MM-DD"
		return
	}
	if startErr == nil && end.Before(start) {
		errs["end_date"] = "End date cannot be before start date"
	}
}

func validateItinerary(d *Draft, required bool, errs ErrorMap) {
	if required && len(d.Itinerary) == 0 {
		errs["itinerary"] = "Add at least one day"
		return
	}
	for i, day := range d.Itinerary {
		if blank(day.Title) {
			errs[fmt.Sprintf("itinerary[%d].title", i)] = "Day title is required"
		}
		if blank(day.Description) {
			errs[fmt.Sprintf("itinerary[%d].description", i)] = "Day description is required"
		}
		if !ValidDifficulty(day.Difficulty) {
			errs[fmt.Sprintf("itinerary[%d].difficulty", i)] = "Unknown difficulty"
		}
	}
}

// validateFAQs 全空的条目在提交时会被丢弃，这里不报错。
func validateFAQs(d *Draft, errs ErrorMap) {
	for i, f := range d.FAQs {
		q, a := blank(f.Question), blank(f.Answer)
		if q && a {
			continue
		}
		if q {
			errs[fmt.Sprintf("faqs[%d].question", i)] = "Question is required"
		}
		if a {
			errs[fmt.Sprintf("faqs[%d].answer", i)] = "Answer is required"
		}
	}
}
