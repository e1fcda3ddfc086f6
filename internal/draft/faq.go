package draft

import "fmt"

// AddFaq 追加一条空的问答。
func (d *Draft) AddFaq() {
	d.FAQs = append(d.FAQs, FAQ{})
	d.clearErrorsWithPrefix("faqs")
}

// RemoveFaq 删除第 i 条问答，允许删空。
func (d *Draft) RemoveFaq(i int) {
	if i < 0 || i >= len(d.FAQs) {
		return
	}
	d.FAQs = append(d.FAQs[:i], d.FAQs[i+1:]...)
	d.clearErrorsWithPrefix("faqs")
}

// UpdateFaq 修改问题或答案。
func (d *Draft) UpdateFaq(i int, field, value string) bool {
	if i < 0 || i >= len(d.FAQs) {
		return false
	}
	switch field {
	case "question":
		d.FAQs[i].Question = value
	case "answer":
		d.FAQs[i].Answer = value
	default:
		return false
	}
	d.clearError(fmt.Sprintf("faqs[%d].%s", i, field))
	return true
}
