package draft

import "testing"

func validTour() *Draft {
	d := New(KindTour)
	d.SetField("title", "Usambara Mountain Hiking")
	d.SetField("description", "Three days in the hills")
	d.SetField("price", "450")
	d.SetField("location", "Lushoto")
	d.SetField("category", "Mountain Trekking")
	d.AddDay()
	d.UpdateDay(0, "description", "Drive to Lushoto")
	return d
}

func validEvent() *Draft {
	d := New(KindEvent)
	d.SetField("title", "Sauti za Busara")
	d.SetField("description", "Music festival")
	d.SetField("price", "60")
	d.SetField("location", "Stone Town")
	d.SetField("event_type", "Festival")
	d.SetField("start_date", "2025-02-13")
	d.SetField("end_date", "2025-02-16")
	d.SetField("time", "18:00")
	d.SetField("image_url", "https://cdn.example.com/busara.jpg")
	return d
}

func TestNextBlockedByBlankTitle(t *testing.T) {
	d := validTour()
	d.SetField("title", "   ")
	w := NewWizard(KindTour, false)

	errs, ok, err := w.Next(d)
	if err != nil || ok {
		t.Fatalf("advanced with blank title (err=%v)", err)
	}
	if _, has := errs["title"]; !has {
		t.Fatalf("errors = %v, want title", errs)
	}
	if w.Current != StepBasic {
		t.Fatalf("current = %s, want basic", w.Current)
	}
	if _, has := d.Errors["title"]; !has {
		t.Fatal("errors not recorded on draft")
	}
}

func TestBasicStepRules(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		field string
		value string
		want  string
	}{
		{"negative price", KindTour, "price", "-1", "price"},
		{"non numeric price", KindTour, "price", "abc", "price"},
		{"missing category", KindTour, "category", "", "category"},
		{"missing event type", KindEvent, "event_type", "", "event_type"},
		{"rating too high", KindTour, "rating", "5.5", "rating"},
		{"missing start date", KindEvent, "start_date", "", "start_date"},
		{"end before start", KindEvent, "end_date", "2025-02-01", "end_date"},
		{"slug with spaces and symbols", KindTour, "slug", "My Tour / Special!", "slug"},
		{"slug with uppercase", KindEvent, "slug", "Sauti-Za-Busara", "slug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validTour()
			if tt.kind == KindEvent {
				d = validEvent()
			}
			d.SetField(tt.field, tt.value)
			errs := Validate(tt.kind, StepBasic, d)
			if _, ok := errs[tt.want]; !ok {
				t.Fatalf("errors = %v, want key %q", errs, tt.want)
			}
		})
	}
}

func TestExplicitSlugKeptWhenValid(t *testing.T) {
	d := validTour()
	d.SetField("slug", "usambara-hike-2025")
	if errs := Validate(KindTour, StepBasic, d); !errs.Empty() {
		t.Fatalf("unexpected errors %v", errs)
	}

	d.SetField("slug", "Usambara Hike")
	if _, ok := Validate(KindTour, StepBasic, d)["slug"]; !ok {
		t.Fatal("unsafe slug accepted")
	}
	if d.Slug != "Usambara Hike" {
		t.Fatalf("slug rewritten to %q", d.Slug)
	}
}

func TestCapacityBounds(t *testing.T) {
	d := validEvent()
	d.SetField("min_attendees", "50")
	d.SetField("max_attendees", "10")
	errs := Validate(KindEvent, StepBasic, d)
	if _, ok := errs["max_attendees"]; !ok {
		t.Fatalf("errors = %v, want max_attendees", errs)
	}
	d.SetField("max_attendees", "50")
	if errs := Validate(KindEvent, StepBasic, d); !errs.Empty() {
		t.Fatalf("unexpected errors %v", errs)
	}
}

func TestImagesStepAsymmetry(t *testing.T) {
	tour := validTour()
	if errs := Validate(KindTour, StepImages, tour); !errs.Empty() {
		t.Fatalf("tour image should not block: %v", errs)
	}
	if w := Warnings(KindTour, StepImages, tour); w.Empty() {
		t.Fatal("tour without image should warn")
	}

	ev := validEvent()
	ev.SetField("image_url", "")
	if errs := Validate(KindEvent, StepImages, ev); errs.Empty() {
		t.Fatal("event without image must block")
	}
}

func TestItineraryAndFaqRules(t *testing.T) {
	d := validTour()
	d.AddDay()
	errs := Validate(KindTour, StepItinerary, d)
	if _, ok := errs["itinerary[1].description"]; !ok {
		t.Fatalf("errors = %v", errs)
	}

	d.RemoveDay(0)
	d.RemoveDay(0)
	if _, ok := Validate(KindTour, StepItinerary, d)["itinerary"]; !ok {
		t.Fatal("empty itinerary should fail")
	}

	d.AddFaq()
	d.AddFaq()
	d.UpdateFaq(1, "question", "Do I need a visa?")
	errs = Validate(KindTour, StepFAQs, d)
	if len(errs) != 1 || errs["faqs[1].answer"] == "" {
		t.Fatalf("errors = %v, want only faqs[1].answer", errs)
	}
}

func TestWizardWalkthroughAndJump(t *testing.T) {
	d := validEvent()
	w := NewWizard(KindEvent, true)

	for !w.IsLast() {
		if errs, ok, err := w.Next(d); err != nil || !ok {
			t.Fatalf("stuck at %s: %v (%v)", w.Current, errs, err)
		}
	}
	if _, ok, err := w.Next(d); ok || err != ErrLastStep {
		t.Fatalf("next on review = %v, %v; want ErrLastStep", ok, err)
	}
	if len(w.Completed) != len(Sequence(KindEvent))-1 {
		t.Fatalf("completed = %v", w.Completed)
	}
	if !w.Jump(StepImages) || w.Current != StepImages {
		t.Fatal("jump to completed step failed")
	}
	if !w.Previous() || w.Current != StepBasic {
		t.Fatal("previous failed")
	}
	if w.Previous() {
		t.Fatal("previous from first step should report false")
	}
	if w.Jump(StepItinerary) {
		t.Fatal("events have no itinerary step")
	}
}

func TestEventItineraryOptionalButValidated(t *testing.T) {
	d := validEvent()
	if errs := Validate(KindEvent, StepDetails, d); !errs.Empty() {
		t.Fatalf("event without days should pass details: %v", errs)
	}

	d.AddDay()
	errs := Validate(KindEvent, StepDetails, d)
	if _, ok := errs["itinerary[0].description"]; !ok {
		t.Fatalf("errors = %v, want itinerary[0].description", errs)
	}

	d.UpdateDay(0, "description", "Doors open at six")
	if errs := ValidateAll(d); !errs.Empty() {
		t.Fatalf("unexpected errors %v", errs)
	}
}

func TestJumpRequiresEditFlowAndVisitedStep(t *testing.T) {
	d := validTour()
	create := NewWizard(KindTour, false)
	if _, _, err := create.Next(d); err != nil {
		t.Fatalf("next: %v", err)
	}
	if create.Jump(StepBasic) {
		t.Fatal("create flow must not jump")
	}

	edit := NewWizard(KindTour, true)
	if edit.Jump(StepReview) {
		t.Fatal("jump to unvisited step allowed")
	}
	if !edit.Jump(StepBasic) {
		t.Fatal("jump to current step rejected")
	}
}

func TestValidateAllUnionsSteps(t *testing.T) {
	d := validTour()
	d.SetField("title", "")
	d.UpdateDay(0, "title", "")
	errs := ValidateAll(d)
	for _, key := range []string{"title", "itinerary[0].title"} {
		if _, ok := errs[key]; !ok {
			t.Errorf("missing %q in %v", key, errs)
		}
	}
}
