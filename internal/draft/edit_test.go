package draft

import (
	"reflect"
	"testing"
)

func TestArrayItemOps(t *testing.T) {
	d := New(KindTour)
	d.AddArrayItem(FieldHighlights)
	d.AddArrayItem(FieldHighlights)
	d.UpdateArrayItem(FieldHighlights, 0, "Sunrise hike")
	d.UpdateArrayItem(FieldHighlights, 5, "ignored")
	d.RemoveArrayItem(FieldHighlights, -1)

	if want := []string{"Sunrise hike", ""}; !reflect.DeepEqual(d.Highlights, want) {
		t.Fatalf("highlights = %#v, want %#v", d.Highlights, want)
	}

	d.RemoveArrayItem(FieldHighlights, 1)
	if want := []string{"Sunrise hike"}; !reflect.DeepEqual(d.Highlights, want) {
		t.Fatalf("highlights = %#v, want %#v", d.Highlights, want)
	}
}

func TestDayRenumbering(t *testing.T) {
	d := New(KindTour)
	d.AddDay()
	d.AddDay()
	d.AddDay()
	d.UpdateDay(1, "title", "Summit day")

	d.RemoveDay(0)

	if len(d.Itinerary) != 2 {
		t.Fatalf("len = %d, want 2", len(d.Itinerary))
	}
	if d.Itinerary[0].DayNumber != 1 || d.Itinerary[0].Title != "Summit day" {
		t.Fatalf("day 1 = %+v", d.Itinerary[0])
	}
	if d.Itinerary[1].DayNumber != 2 || d.Itinerary[1].Title != "Day 2" {
		t.Fatalf("day 2 = %+v, want renumbered default title", d.Itinerary[1])
	}
}

func TestReorderDay(t *testing.T) {
	d := New(KindTour)
	d.AddDay()
	d.AddDay()
	d.UpdateDay(0, "title", "Arrival")

	d.ReorderDay(0, DirectionUp)
	if d.Itinerary[0].Title != "Arrival" {
		t.Fatal("moving the first day up must be a no-op")
	}

	d.ReorderDay(0, DirectionDown)
	got := []string{d.Itinerary[0].Title, d.Itinerary[1].Title}
	if want := []string{"Day 1", "Arrival"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
	for i, day := range d.Itinerary {
		if day.DayNumber != i+1 {
			t.Fatalf("day_number at %d = %d", i, day.DayNumber)
		}
	}
}

func TestAddActivityRejectsBlank(t *testing.T) {
	d := New(KindTour)
	d.AddDay()
	d.AddActivity(0, "   ")
	d.AddActivity(0, "")
	if len(d.Itinerary[0].Activities) != 0 {
		t.Fatalf("blank activity added: %#v", d.Itinerary[0].Activities)
	}
	d.AddActivity(0, "  Game drive ")
	d.AddActivity(3, "out of range")
	if want := []string{"Game drive"}; !reflect.DeepEqual(d.Itinerary[0].Activities, want) {
		t.Fatalf("activities = %#v", d.Itinerary[0].Activities)
	}
	d.RemoveActivity(0, 0)
	if len(d.Itinerary[0].Activities) != 0 {
		t.Fatal("activity not removed")
	}
}

func TestUpdateDayAndMeals(t *testing.T) {
	d := New(KindTour)
	d.AddDay()
	if d.UpdateDay(0, "difficulty", "extreme") {
		t.Fatal("unknown difficulty accepted")
	}
	if !d.UpdateDay(0, "difficulty", string(DifficultyModerate)) {
		t.Fatal("valid difficulty rejected")
	}
	d.SetMeals(0, []string{"breakfast", " ", "dinner", "breakfast"})
	if want := []string{"breakfast", "dinner"}; !reflect.DeepEqual(d.Itinerary[0].Meals, want) {
		t.Fatalf("meals = %#v", d.Itinerary[0].Meals)
	}
}

func TestFaqOps(t *testing.T) {
	d := New(KindEvent)
	d.AddFaq()
	if !d.UpdateFaq(0, "question", "Is parking available?") {
		t.Fatal("update rejected")
	}
	if d.UpdateFaq(0, "hint", "x") || d.UpdateFaq(4, "answer", "x") {
		t.Fatal("bad field or index accepted")
	}
	d.RemoveFaq(0)
	if len(d.FAQs) != 0 {
		t.Fatal("removing the last FAQ should be allowed")
	}
}
