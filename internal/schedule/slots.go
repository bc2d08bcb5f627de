package schedule

import (
	"sort"
	"strings"

	"vitalis/internal/model"
)

// TimeSlot is one row of the list view: a slot label and the seminars that
// share it, in catalog order.
type TimeSlot struct {
	Label        string          `json:"time_slot"`
	StartMinutes int             `json:"start_minutes"`
	Seminars     []model.Seminar `json:"seminars"`
}

// SlotLabel derives the selection key of a seminar for the given day
// prefix: the raw date_time with the prefix removed and trimmed. ok is
// false when the seminar is not on that day.
func SlotLabel(s model.Seminar, day string) (string, bool) {
	if day == "" || !strings.HasPrefix(s.DateTime, day) {
		return "", false
	}
	return strings.TrimSpace(s.DateTime[len(day):]), true
}

// OwnSlot is the seminar's slot label under its own day prefix, the key a
// selection of it is stored under.
func OwnSlot(s model.Seminar) (string, bool) {
	days := Days([]model.Seminar{s})
	if len(days) == 0 {
		return "", false
	}
	return SlotLabel(s, days[0].Key)
}

// GroupByTimeSlot returns the day's matching seminars grouped by slot
// label, ordered by the label's start time. The day is matched as a raw
// prefix of date_time. Labels without a readable start time sort as 00:00.
// An empty day yields no slots.
func GroupByTimeSlot(seminars []model.Seminar, day string, filters model.Filters, query string) []TimeSlot {
	if day == "" {
		return nil
	}

	index := make(map[string]int)
	var slots []TimeSlot
	for _, s := range seminars {
		label, ok := SlotLabel(s, day)
		if !ok || !Matches(s, filters, query) {
			continue
		}
		i, seen := index[label]
		if !seen {
			i = len(slots)
			index[label] = i
			slots = append(slots, TimeSlot{Label: label, StartMinutes: StartMinutes(label)})
		}
		slots[i].Seminars = append(slots[i].Seminars, s)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartMinutes < slots[j].StartMinutes
	})
	return slots
}

// CountSeminars totals the seminars across slots (the search result count).
func CountSeminars(slots []TimeSlot) int {
	n := 0
	for _, slot := range slots {
		n += len(slot.Seminars)
	}
	return n
}
