package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"TourAdmin/internal/draft"
	"TourAdmin/internal/queue"
	"TourAdmin/pkg/errors"
	"TourAdmin/pkg/response"
)

func mustOK(t *testing.T) func(*Session, error) {
	return func(_ *Session, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func startTour(t *testing.T, f *fixture) string {
	t.Helper()
	ctx := context.Background()
	sess, err := f.svc.StartCreate(ctx, draft.KindTour)
	if err != nil {
		t.Fatalf("StartCreate: %v", err)
	}
	mustOK(t)(f.svc.SetFields(ctx, sess.ID, map[string]string{
		"title":       "Usambara Mountain Hiking!",
		"description": "Three days in the hills",
		"price":       "450",
		"location":    "Lushoto",
		"category":    "Mountain Trekking",
	}))
	return sess.ID
}

func fillItinerary(t *testing.T, f *fixture, id string) {
	t.Helper()
	ctx := context.Background()
	mustOK(t)(f.svc.AddDay(ctx, id))
	mustOK(t)(f.svc.AddDay(ctx, id))
	for i, desc := range []string{"Drive to Lushoto", "Irente viewpoint"} {
		mustOK(t)(f.svc.UpdateDay(ctx, id, i, DayUpdate{
			Fields: map[string]string{"description": desc},
			Meals:  []string{"Lunch", " Dinner "},
		}))
	}
	mustOK(t)(f.svc.AddActivity(ctx, id, 0, "Market walk"))
}

func defOf(t *testing.T, err error) errors.Definition {
	t.Helper()
	def, ok := response.AsDefinition(err)
	if !ok {
		t.Fatalf("error %v carries no business code", err)
	}
	return def
}

func TestSetFieldsRejectsUnknownFieldWithoutSaving(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess, _ := f.svc.StartCreate(ctx, draft.KindTour)

	_, err := f.svc.SetFields(ctx, sess.ID, map[string]string{"title": "Kept?", "start_date": "2025-01-01"})
	if defOf(t, err).Code != errors.UnknownField.Code {
		t.Fatalf("got %v, want UNKNOWN_FIELD", err)
	}

	got, _ := f.svc.GetSession(ctx, sess.ID)
	if got.Draft.Title != "" {
		t.Fatalf("rejected batch was persisted: title=%q", got.Draft.Title)
	}
}

func TestSetFieldsSlugAndTitleInOneBatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess, _ := f.svc.StartCreate(ctx, draft.KindTour)

	got, err := f.svc.SetFields(ctx, sess.ID, map[string]string{"slug": "custom-slug", "title": "Another Title"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Draft.Slug != "custom-slug" {
		t.Fatalf("slug = %q, want custom-slug", got.Draft.Slug)
	}
}

func TestNextWithBlankTitleStaysOnBasic(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess, _ := f.svc.StartCreate(ctx, draft.KindTour)

	got, advanced, err := f.svc.Next(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if advanced || got.Wizard.Current != draft.StepBasic {
		t.Fatalf("advanced=%v current=%s", advanced, got.Wizard.Current)
	}
	if _, ok := got.Snapshot().Errors["title"]; !ok {
		t.Fatalf("errors = %v, want title", got.Snapshot().Errors)
	}

	reloaded, _ := f.svc.GetSession(ctx, sess.ID)
	if _, ok := reloaded.Draft.Errors["title"]; !ok {
		t.Fatal("validation errors were not stored with the session")
	}
}

func TestJumpOnlyInEditFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startTour(t, f)

	if _, err := f.svc.Jump(ctx, id, string(draft.StepReview)); defOf(t, err).Code != errors.StepNotReachable.Code {
		t.Fatalf("got %v, want STEP_NOT_REACHABLE", err)
	}
}

func TestNextOnLastStepIsNotReachable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startTour(t, f)
	fillItinerary(t, f, id)

	for i := 0; i < len(draft.Sequence(draft.KindTour))-1; i++ {
		_, advanced, err := f.svc.Next(ctx, id)
		if err != nil || !advanced {
			t.Fatalf("step %d: advanced=%v err=%v", i, advanced, err)
		}
	}
	before, _ := f.svc.GetSession(ctx, id)
	if before.Wizard.Current != draft.StepReview {
		t.Fatalf("current = %s, want review", before.Wizard.Current)
	}

	_, advanced, err := f.svc.Next(ctx, id)
	if advanced || defOf(t, err).Code != errors.StepNotReachable.Code {
		t.Fatalf("advanced=%v err=%v, want STEP_NOT_REACHABLE", advanced, err)
	}
	after, _ := f.svc.GetSession(ctx, id)
	if after.Wizard.Current != draft.StepReview || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatal("rejected Next must not touch the session")
	}
}

func TestEventItineraryOperations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess, _ := f.svc.StartCreate(ctx, draft.KindEvent)

	mustOK(t)(f.svc.AddDay(ctx, sess.ID))
	mustOK(t)(f.svc.AddActivity(ctx, sess.ID, 0, "Opening parade"))
	got, err := f.svc.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Draft.Itinerary) != 1 || got.Draft.Itinerary[0].Activities[0] != "Opening parade" {
		t.Fatalf("itinerary = %+v", got.Draft.Itinerary)
	}
}

func TestSubmitTourWritesParentThenItinerary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startTour(t, f)
	fillItinerary(t, f, id)

	res, err := f.svc.Submit(ctx, id, "admin@example.com")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Created || !res.ItinerarySaved || len(res.Warnings) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	calls := f.gateway.callLog()
	want := []string{"create", "replace:" + res.Listing.ID}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Fatalf("calls = %v, want %v", calls, want)
	}

	if len(f.gateway.childDays) != 2 {
		t.Fatalf("child days = %d, want 2", len(f.gateway.childDays))
	}
	for i, d := range f.gateway.childDays {
		if d.ParentID != res.Listing.ID || d.DayNumber != i+1 {
			t.Fatalf("day %d = %+v", i, d)
		}
	}
	if meals := f.gateway.childDays[0].Meals; len(meals) != 2 || meals[1] != "Dinner" {
		t.Fatalf("meals = %v", meals)
	}

	p := f.gateway.lastCreate
	if p.Slug != "usambara-mountain-hiking" || p.Status != "draft" || p.Highlights == nil {
		t.Fatalf("payload = %+v", p)
	}
	if len(res.Listing.Itinerary) != 2 {
		t.Fatalf("returned itinerary = %d days", len(res.Listing.Itinerary))
	}

	if f.sessions.has(id) {
		t.Fatal("session should be discarded after a successful submit")
	}
	if len(f.publisher.listings) != 1 || f.publisher.listings[0].EventType != queue.ListingCreated {
		t.Fatalf("events = %+v", f.publisher.listings)
	}
}

func TestSubmitParentFailureWritesNoChildren(t *testing.T) {
	f := newFixture()
	f.gateway.createErr = stderrors.New("connection refused")
	ctx := context.Background()
	id := startTour(t, f)
	fillItinerary(t, f, id)

	_, err := f.svc.Submit(ctx, id, "")
	if defOf(t, err).Code != errors.SubmissionFailed.Code {
		t.Fatalf("got %v, want SUBMISSION_FAILED", err)
	}
	for _, c := range f.gateway.callLog() {
		if c != "create" {
			t.Fatalf("unexpected gateway call %q after parent failure", c)
		}
	}
	if len(f.gateway.childDays) != 0 {
		t.Fatalf("child writes = %d, want 0", len(f.gateway.childDays))
	}

	sess, err := f.svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("session must survive a failed submit: %v", err)
	}
	if len(sess.Draft.Itinerary) != 2 {
		t.Fatal("draft changed by failed submit")
	}
	if len(f.publisher.listings) != 0 {
		t.Fatal("no event expected for a failed submit")
	}

	// 锁已释放，可以重试
	f.gateway.createErr = nil
	if _, err := f.svc.Submit(ctx, id, ""); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestSubmitChildFailureReportsPartialSuccess(t *testing.T) {
	f := newFixture()
	f.gateway.replaceErr = stderrors.New("timeout")
	ctx := context.Background()
	id := startTour(t, f)
	fillItinerary(t, f, id)

	res, err := f.svc.Submit(ctx, id, "")
	if err != nil {
		t.Fatalf("partial success must not be an error: %v", err)
	}
	if res.Listing == nil || res.Listing.ID == "" || !res.Created {
		t.Fatalf("listing should be reported as created: %+v", res)
	}
	if res.ItinerarySaved {
		t.Fatal("ItinerarySaved should be false")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != errors.ItineraryNotSaved.Code {
		t.Fatalf("warnings = %+v", res.Warnings)
	}

	b, _ := json.Marshal(res)
	var out map[string]interface{}
	_ = json.Unmarshal(b, &out)
	if out["itinerary_saved"] != false {
		t.Fatalf("itinerary_saved missing from response: %s", b)
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startTour(t, f)
	mustOK(t)(f.svc.SetFields(ctx, id, map[string]string{"title": ""}))

	_, err := f.svc.Submit(ctx, id, "")
	var verr *ValidationError
	if !stderrors.As(err, &verr) {
		t.Fatalf("got %v, want *ValidationError", err)
	}
	if _, ok := verr.Fields["title"]; !ok {
		t.Fatalf("fields = %v, want title", verr.Fields)
	}
	if _, ok := verr.Fields["itinerary"]; !ok {
		t.Fatalf("fields = %v, want itinerary", verr.Fields)
	}
	if defOf(t, err).Code != errors.ValidationFailed.Code {
		t.Fatal("validation error should map to VALIDATION_FAILED")
	}
	if len(f.gateway.callLog()) != 0 {
		t.Fatalf("gateway called: %v", f.gateway.callLog())
	}

	sess, _ := f.svc.GetSession(ctx, id)
	if _, ok := sess.Draft.Errors["title"]; !ok {
		t.Fatal("submit errors should be stored for display")
	}
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startTour(t, f)
	fillItinerary(t, f, id)

	_, _ = f.locker.TryLock(ctx, "submit:"+id, 0)
	_, err := f.svc.Submit(ctx, id, "")
	if defOf(t, err).Code != errors.SubmitInProgress.Code {
		t.Fatalf("got %v, want SUBMIT_IN_PROGRESS", err)
	}
	if len(f.gateway.callLog()) != 0 {
		t.Fatal("gateway must not be called while another submit runs")
	}
}

func startEvent(t *testing.T, f *fixture) string {
	t.Helper()
	ctx := context.Background()
	sess, err := f.svc.StartCreate(ctx, draft.KindEvent)
	if err != nil {
		t.Fatalf("StartCreate: %v", err)
	}
	mustOK(t)(f.svc.SetFields(ctx, sess.ID, map[string]string{
		"title":       "Sauti za Busara",
		"description": "Music festival",
		"price":       "60",
		"location":    "Stone Town",
		"event_type":  "Festival",
		"start_date":  "2025-02-13",
		"end_date":    "2025-02-16",
		"time":        "18:00",
		"image_url":   "https://cdn.test/busara.jpg",
	}))
	return sess.ID
}

func TestSubmitEventWithoutDaysSkipsItinerary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startEvent(t, f)

	res, err := f.svc.Submit(ctx, id, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if calls := f.gateway.callLog(); len(calls) != 1 || calls[0] != "create" {
		t.Fatalf("calls = %v", calls)
	}
	p := f.gateway.lastCreate
	if p.StartAt != "2025-02-13T18:00:00" || p.Duration != "4 days" || p.EventType != "Festival" {
		t.Fatalf("payload = %+v", p)
	}
	if !res.ItinerarySaved {
		t.Fatal("an event without days has no itinerary to lose")
	}
}

func TestSubmitEventWithDaysWritesItinerary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startEvent(t, f)
	mustOK(t)(f.svc.AddDay(ctx, id))
	mustOK(t)(f.svc.UpdateDay(ctx, id, 0, DayUpdate{Fields: map[string]string{"description": "Opening night"}}))

	res, err := f.svc.Submit(ctx, id, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	calls := f.gateway.callLog()
	if len(calls) != 2 || calls[0] != "create" || calls[1] != "replace:"+res.Listing.ID {
		t.Fatalf("calls = %v", calls)
	}
	if len(f.gateway.childDays) != 1 || f.gateway.childDays[0].Description != "Opening night" {
		t.Fatalf("child days = %+v", f.gateway.childDays)
	}
	if len(res.Listing.Itinerary) != 1 {
		t.Fatalf("returned itinerary = %d days", len(res.Listing.Itinerary))
	}
}

func TestSubmitEventDayMissingDescription(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startEvent(t, f)
	mustOK(t)(f.svc.AddDay(ctx, id))

	_, err := f.svc.Submit(ctx, id, "")
	var verr *ValidationError
	if !stderrors.As(err, &verr) || verr.Fields["itinerary[0].description"] == "" {
		t.Fatalf("got %v, want itinerary[0].description error", err)
	}
	if len(f.gateway.callLog()) != 0 {
		t.Fatalf("gateway called: %v", f.gateway.callLog())
	}
}

func TestSubmitInvalidPrice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startTour(t, f)
	fillItinerary(t, f, id)
	mustOK(t)(f.svc.SetFields(ctx, id, map[string]string{"price": "cheap"}))

	_, err := f.svc.Submit(ctx, id, "")
	var verr *ValidationError
	if !stderrors.As(err, &verr) || verr.Fields["price"] == "" {
		t.Fatalf("got %v, want price validation error", err)
	}
}

func TestEditFlowLoadsLegacyRecordAndUpdates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.gateway.records["55"] = &draft.Record{
		ID:          "55",
		Kind:        draft.KindTour,
		Title:       "Old Title",
		Slug:        "old-title",
		Description: "Desc",
		Price:       120,
		Location:    "Arusha",
		Category:    "Adventure",
		Itinerary: []draft.RecordDay{
			{DayNumber: 2, Title: "Second", Description: "b", Meals: json.RawMessage(`"Breakfast, Lunch"`)},
			{DayNumber: 1, Title: "First", Description: "a", Meals: json.RawMessage(`["Dinner"]`)},
		},
	}

	sess, err := f.svc.StartEdit(ctx, draft.KindTour, "55")
	if err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	if !sess.Wizard.Edit || sess.ListingID != "55" {
		t.Fatalf("session = %+v", sess)
	}
	if sess.Draft.Itinerary[0].Title != "First" || len(sess.Draft.Itinerary[1].Meals) != 2 {
		t.Fatalf("itinerary = %+v", sess.Draft.Itinerary)
	}

	mustOK(t)(f.svc.SetFields(ctx, sess.ID, map[string]string{"title": "New Title"}))
	got, _ := f.svc.GetSession(ctx, sess.ID)
	if got.Draft.Slug != "old-title" {
		t.Fatalf("stored slug must not follow title, got %q", got.Draft.Slug)
	}

	res, err := f.svc.Submit(ctx, sess.ID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Created {
		t.Fatal("edit flow must update, not create")
	}
	if calls := f.gateway.callLog(); calls[0] != "update:55" || calls[1] != "replace:55" {
		t.Fatalf("calls = %v", calls)
	}
	if f.publisher.listings[0].EventType != queue.ListingUpdated {
		t.Fatalf("event = %+v", f.publisher.listings[0])
	}
}

func TestStartEditMissingListing(t *testing.T) {
	f := newFixture()
	_, err := f.svc.StartEdit(context.Background(), draft.KindEvent, "404")
	if defOf(t, err).Code != errors.ListingNotFound.Code {
		t.Fatalf("got %v, want LISTING_NOT_FOUND", err)
	}
}

func TestSessionNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.AddFaq(context.Background(), "missing")
	if defOf(t, err).Code != errors.SessionNotFound.Code {
		t.Fatalf("got %v, want SESSION_NOT_FOUND", err)
	}
}

func TestDeleteListing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.gateway.records["7"] = &draft.Record{ID: "7", Kind: draft.KindTour}

	if err := f.svc.DeleteListing(ctx, draft.KindTour, "7", "ops"); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteListing(ctx, draft.KindTour, "7", "ops"); defOf(t, err).Code != errors.ListingNotFound.Code {
		t.Fatalf("second delete: %v", err)
	}
	if len(f.publisher.listings) != 1 || f.publisher.listings[0].EventType != queue.ListingDeleted {
		t.Fatalf("events = %+v", f.publisher.listings)
	}
}

func TestPreviewRendersDescription(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := startTour(t, f)
	mustOK(t)(f.svc.SetFields(ctx, id, map[string]string{"description": "**Bold** <script>x</script>"}))

	p, err := f.svc.Preview(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if p.Ready {
		t.Fatal("tour without itinerary is not ready")
	}
	if want := "<strong>Bold</strong>"; !strings.Contains(p.DescriptionHTML, want) {
		t.Fatalf("html = %q, want %q", p.DescriptionHTML, want)
	}
	if strings.Contains(p.DescriptionHTML, "<script>") {
		t.Fatalf("raw html must not pass through: %q", p.DescriptionHTML)
	}
}

func TestPreviewReportsErrorsBeforeNormalizing(t *testing.T) {
	cases := []struct {
		name  string
		price string
		want  string
	}{
		{"blank price", "", "Price is required"},
		{"non-numeric price", "cheap", "Price must be a number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			id := startTour(t, f)
			mustOK(t)(f.svc.SetFields(ctx, id, map[string]string{"price": tc.price}))

			p, err := f.svc.Preview(ctx, id)
			if err != nil {
				t.Fatalf("Preview: %v", err)
			}
			if p.Ready || p.Payload != nil {
				t.Fatalf("preview = %+v, want not ready without payload", p)
			}
			if p.Errors["price"] != tc.want {
				t.Fatalf("price error = %q, want %q", p.Errors["price"], tc.want)
			}
			if !strings.Contains(p.DescriptionHTML, "Three days in the hills") {
				t.Fatalf("description not rendered: %q", p.DescriptionHTML)
			}
		})
	}
}
