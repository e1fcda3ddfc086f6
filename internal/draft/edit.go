package draft

// ListField 可编辑的字符串数组字段。
type ListField string

const (
	FieldHighlights   ListField = "highlights"
	FieldIncluded     ListField = "included"
	FieldExcluded     ListField = "excluded"
	FieldRequirements ListField = "requirements"
	FieldGallery      ListField = "gallery"
)

// ListFields 所有数组字段，顺序即提交时的处理顺序。
var ListFields = []ListField{FieldHighlights, FieldIncluded, FieldExcluded, FieldRequirements, FieldGallery}

// ParseListField 校验数组字段名。
func ParseListField(s string) (ListField, bool) {
	for _, f := range ListFields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

func (d *Draft) list(f ListField) *[]string {
	switch f {
	case FieldHighlights:
		return &d.Highlights
	case FieldIncluded:
		return &d.Included
	case FieldExcluded:
		return &d.Excluded
	case FieldRequirements:
		return &d.Requirements
	case FieldGallery:
		return &d.Gallery
	}
	return nil
}

// AddArrayItem 在数组末尾追加一个空字符串。
func (d *Draft) AddArrayItem(f ListField) {
	l := d.list(f)
	if l == nil {
		return
	}
	*l = append(*l, "")
	d.clearErrorsWithPrefix(string(f))
}

// UpdateArrayItem 替换 index 处的元素，越界时忽略。
func (d *Draft) UpdateArrayItem(f ListField, index int, value string) {
	l := d.list(f)
	if l == nil || index < 0 || index >= len(*l) {
		return
	}
	(*l)[index] = value
	d.clearErrorsWithPrefix(string(f))
}

// RemoveArrayItem 删除 index 处的元素，越界时忽略。
func (d *Draft) RemoveArrayItem(f ListField, index int) {
	l := d.list(f)
	if l == nil || index < 0 || index >= len(*l) {
		return
	}
	*l = append((*l)[:index], (*l)[index+1:]...)
	d.clearErrorsWithPrefix(string(f))
}

// AppendArrayItems 追加若干已确认的值，用于上传成功后写入图库。
func (d *Draft) AppendArrayItems(f ListField, values ...string) {
	l := d.list(f)
	if l == nil {
		return
	}
	*l = append(*l, values...)
	d.clearErrorsWithPrefix(string(f))
}
