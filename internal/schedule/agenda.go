package schedule

import (
	"sort"

	"vitalis/internal/model"
)

// AgendaEntry is one selected seminar in the personal schedule.
type AgendaEntry struct {
	Slot         string        `json:"time_slot"`
	Time         string        `json:"time"`
	StartMinutes int           `json:"start_minutes"`
	Seminar      model.Seminar `json:"seminar"`
	Conflict     bool          `json:"conflict"`
}

// AgendaDay groups the selections that fall on one written date.
type AgendaDay struct {
	Date    string        `json:"date"`
	SortKey string        `json:"sort_key"`
	Entries []AgendaEntry `json:"entries"`
}

// BuildAgenda turns the selections into the "my schedule" view: grouped
// by date, dates in calendar order, entries by start time. Selections whose
// seminar is gone or has no readable date are left out.
func BuildAgenda(selections model.Selections, catalog *model.Catalog) []AgendaDay {
	conflicting := make(map[model.ID]bool)
	for _, pair := range Conflicts(selections, catalog) {
		conflicting[pair.A] = true
		conflicting[pair.B] = true
	}

	byDate := make(map[string]int)
	days := []AgendaDay{}
	for _, slot := range selections.Labels() {
		s, ok := catalog.Lookup(selections[slot])
		if !ok {
			continue
		}
		date, ok := ParseDate(s.DateTime)
		if !ok {
			continue
		}
		text := date.Text()
		i, seen := byDate[text]
		if !seen {
			i = len(days)
			byDate[text] = i
			days = append(days, AgendaDay{Date: text, SortKey: date.SortKey()})
		}
		days[i].Entries = append(days[i].Entries, AgendaEntry{
			Slot:         slot,
			Time:         TimeRange(slot),
			StartMinutes: StartMinutes(slot),
			Seminar:      s,
			Conflict:     conflicting[s.ID],
		})
	}

	sort.SliceStable(days, func(i, j int) bool {
		if days[i].SortKey != days[j].SortKey {
			return days[i].SortKey < days[j].SortKey
		}
		return days[i].Date < days[j].Date
	})
	for _, d := range days {
		sort.SliceStable(d.Entries, func(i, j int) bool {
			return d.Entries[i].StartMinutes < d.Entries[j].StartMinutes
		})
	}
	return days
}
