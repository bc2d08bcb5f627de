package schedule

import (
	"reflect"
	"testing"

	"vitalis/internal/model"
)

func slotLabels(slots []TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Label)
	}
	return out
}

func slotIDs(slot TimeSlot) []model.ID {
	out := make([]model.ID, 0, len(slot.Seminars))
	for _, s := range slot.Seminars {
		out = append(out, s.ID)
	}
	return out
}

func TestGroupByTimeSlotOrdering(t *testing.T) {
	slots := GroupByTimeSlot(sampleCatalog(), "Måndag 12", nil, "")

	want := []string{
		"maj 2025 09:00 - 09:30",
		"maj 2025 10:30 - 11:00",
		"maj 2025 14:00 - 14:30",
	}
	if got := slotLabels(slots); !reflect.DeepEqual(got, want) {
		t.Fatalf("labels = %v, want %v", got, want)
	}
	if got := slotIDs(slots[1]); !reflect.DeepEqual(got, []model.ID{"1", "4"}) {
		t.Errorf("10:30 members = %v, want catalog order [1 4]", got)
	}
	if slots[0].StartMinutes != 540 {
		t.Errorf("start minutes = %d", slots[0].StartMinutes)
	}
	if CountSeminars(slots) != 4 {
		t.Errorf("count = %d, want 4", CountSeminars(slots))
	}
}

func TestGroupByTimeSlotFullDayKey(t *testing.T) {
	slots := GroupByTimeSlot(sampleCatalog(), "Tisdag 13 maj 2025", nil, "")
	if got := slotLabels(slots); !reflect.DeepEqual(got, []string{"10:00 - 11:00"}) {
		t.Errorf("labels = %v", got)
	}
}

func TestGroupByTimeSlotAppliesFiltersAndSearch(t *testing.T) {
	filters := model.Filters{model.FacetLanguage: {"Svenska"}}
	slots := GroupByTimeSlot(sampleCatalog(), "Måndag 12", filters, "")
	if got := slotLabels(slots); !reflect.DeepEqual(got, []string{"maj 2025 10:30 - 11:00", "maj 2025 14:00 - 14:30"}) {
		t.Errorf("filtered labels = %v", got)
	}
	if got := slotIDs(slots[0]); !reflect.DeepEqual(got, []model.ID{"1"}) {
		t.Errorf("filtered members = %v", got)
	}

	slots = GroupByTimeSlot(sampleCatalog(), "Måndag 12", nil, "datadel")
	if len(slots) != 1 || slots[0].Seminars[0].ID != "4" {
		t.Errorf("search result = %+v", slots)
	}
}

func TestGroupByTimeSlotUnparseableSortsFirst(t *testing.T) {
	seminars := []model.Seminar{
		seminar("1", "Morgon", "Måndag 12 maj 2025 09:00 - 09:30", nil),
		seminar("2", "Heldag", "Måndag 12 maj 2025 heldag", nil),
	}
	slots := GroupByTimeSlot(seminars, "Måndag 12", nil, "")
	if got := slotLabels(slots); !reflect.DeepEqual(got, []string{"maj 2025 heldag", "maj 2025 09:00 - 09:30"}) {
		t.Errorf("labels = %v", got)
	}
}

func TestGroupByTimeSlotEmptyDay(t *testing.T) {
	if slots := GroupByTimeSlot(sampleCatalog(), "", nil, ""); slots != nil {
		t.Errorf("expected no slots without a day, got %v", slots)
	}
	if slots := GroupByTimeSlot(sampleCatalog(), "Söndag 18", nil, ""); len(slots) != 0 {
		t.Errorf("expected no slots for an unknown day, got %v", slots)
	}
}

func TestSlotLabel(t *testing.T) {
	s := seminar("1", "x", "Måndag 12 maj 2025 10:00 - 11:00", nil)
	if label, ok := SlotLabel(s, "Måndag 12"); !ok || label != "maj 2025 10:00 - 11:00" {
		t.Errorf("SlotLabel = %q, %v", label, ok)
	}
	if _, ok := SlotLabel(s, "Tisdag 13"); ok {
		t.Error("SlotLabel should fail for another day")
	}
}
