package draft

import "errors"

// Wizard 多步骤表单的导航状态。步骤严格线性，不允许跳到未访问过的步骤。
type Wizard struct {
	Kind      Kind   `json:"kind"`
	Current   Step   `json:"current"`
	Completed []Step `json:"completed"`
	// Edit 为 true 表示编辑已有记录，允许通过步骤指示器跳转。
	Edit bool `json:"edit"`
}

// NewWizard 从第一步开始。
func NewWizard(k Kind, edit bool) *Wizard {
	return &Wizard{
		Kind:      k,
		Current:   Sequence(k)[0],
		Completed: []Step{},
		Edit:      edit,
	}
}

// ErrLastStep 已在最后一步，只能提交
var ErrLastStep = errors.New("draft: already on the last step")

// Next 校验当前步骤，没有错误时前进。
// 校验结果同时写回 d.Errors；返回值表示是否前进。已在最后一步时返回 ErrLastStep。
func (w *Wizard) Next(d *Draft) (ErrorMap, bool, error) {
	if w.IsLast() {
		return ErrorMap{}, false, ErrLastStep
	}
	errs := Validate(w.Kind, w.Current, d)
	d.Errors = errs
	if !errs.Empty() {
		return errs, false, nil
	}

	steps := Sequence(w.Kind)
	idx := stepIndex(w.Kind, w.Current)
	if idx < 0 {
		return errs, false, ErrLastStep
	}
	if w.Edit {
		w.markCompleted(w.Current)
	}
	w.Current = steps[idx+1]
	return errs, true, nil
}

// Previous 后退一步，不做校验。已在第一步时返回 false。
func (w *Wizard) Previous() bool {
	idx := stepIndex(w.Kind, w.Current)
	if idx <= 0 {
		return false
	}
	w.Current = Sequence(w.Kind)[idx-1]
	return true
}

// Jump 仅编辑流程可用，目标只能是当前步骤或已完成的步骤。
func (w *Wizard) Jump(target Step) bool {
	if !w.Edit || !HasStep(w.Kind, target) {
		return false
	}
	if target != w.Current && !w.IsCompleted(target) {
		return false
	}
	w.Current = target
	return true
}

// IsCompleted 报告步骤是否已完成。
func (w *Wizard) IsCompleted(s Step) bool {
	for _, c := range w.Completed {
		if c == s {
			return true
		}
	}
	return false
}

// IsLast 当前是否为最后一步（review）。
func (w *Wizard) IsLast() bool {
	steps := Sequence(w.Kind)
	return w.Current == steps[len(steps)-1]
}

func (w *Wizard) markCompleted(s Step) {
	if !w.IsCompleted(s) {
		w.Completed = append(w.Completed, s)
	}
}
