package draft

// Step 表单步骤
type Step string

const (
	StepBasic      Step = "basic"
	StepImages     Step = "images"
	StepItinerary  Step = "itinerary"
	StepDetails    Step = "details"
	StepFAQs       Step = "faqs"
	StepInclusions Step = "inclusions"
	StepReview     Step = "review"
)

var (
	tourSteps  = []Step{StepBasic, StepImages, StepItinerary, StepFAQs, StepInclusions, StepReview}
	eventSteps = []Step{StepBasic, StepImages, StepDetails, StepInclusions, StepFAQs, StepReview}
)

// Sequence 返回实体对应的步骤顺序（副本）。
func Sequence(k Kind) []Step {
	src := tourSteps
	if k == KindEvent {
		src = eventSteps
	}
	out := make([]Step, len(src))
	copy(out, src)
	return out
}

func stepIndex(k Kind, s Step) int {
	for i, step := range Sequence(k) {
		if step == s {
			return i
		}
	}
	return -1
}

// HasStep 报告该实体的流程中是否包含某一步。
func HasStep(k Kind, s Step) bool {
	return stepIndex(k, s) >= 0
}
