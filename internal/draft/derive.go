package draft

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	slugInvalid   = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSeparator = regexp.MustCompile(`[\s_-]+`)
)

// DeriveSlug 由标题生成 URL 安全的 slug，对结果再次调用结果不变。
//
//	DeriveSlug("Usambara Mountain Hiking!") == "usambara-mountain-hiking"
func DeriveSlug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSeparator.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// DeriveDuration 根据起止日期计算时长文本，含首尾两天。
// 任一日期缺失或格式错误时返回 false。
func DeriveDuration(start, end string) (string, bool) {
	s, err := time.Parse(dateLayout, strings.TrimSpace(start))
	if err != nil {
		return "", false
	}
	e, err := time.Parse(dateLayout, strings.TrimSpace(end))
	if err != nil {
		return "", false
	}

	diff := e.Sub(s)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(diff.Hours()/24)) + 1
	if days == 1 {
		return "1 day", true
	}
	return fmt.Sprintf("%d days", days), true
}

// CombineDateTime 把日期与时间拼成 YYYY-MM-DDTHH:MM:00，只用于提交载荷。
// 时间接受 HH:MM 或 HH:MM:SS，秒数被丢弃。
func CombineDateTime(date, clock string) (string, bool) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", false
	}
	t, ok := parseClock(clock)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%sT%s:00", date, t.Format("15:04")), true
}

func parseClock(clock string) (time.Time, bool) {
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
