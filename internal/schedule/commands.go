package schedule

import (
	"strings"

	"vitalis/internal/model"
)

// ToggleSelection returns new selections: the slot entry is removed when it
// already maps to id, otherwise it is set to id (replacing any previous
// choice in that slot). The input is not modified.
func ToggleSelection(selections model.Selections, slot string, id model.ID) model.Selections {
	next := selections.Clone()
	if cur, ok := next[slot]; ok && cur == id {
		delete(next, slot)
		return next
	}
	next[slot] = id
	return next
}

// ToggleFilter returns new filters with value removed from the facet when
// active, appended otherwise.
func ToggleFilter(filters model.Filters, facet model.Facet, value string) model.Filters {
	next := filters.Clone()
	values := next[facet]
	for i, v := range values {
		if v == value {
			next[facet] = append(values[:i:i], values[i+1:]...)
			return next
		}
	}
	next[facet] = append(values, value)
	return next
}

// ClearFilters returns filters with every facet empty.
func ClearFilters() model.Filters {
	return model.NewFilters()
}

// CountActiveFilters is the number of active values across all facets.
func CountActiveFilters(filters model.Filters) int {
	n := 0
	for _, facet := range model.Facets {
		n += len(filters[facet])
	}
	return n
}

// Day is one entry of the day selector.
type Day struct {
	// Key is the prefix matched against date_time, e.g. "Måndag 12".
	Key string `json:"date"`
	// Name is the weekday, e.g. "Måndag".
	Name string `json:"day_name"`
}

// Days lists the distinct day prefixes (first two words of date_time) in
// first-seen order. The first entry is the default active day.
func Days(seminars []model.Seminar) []Day {
	seen := make(map[string]struct{})
	days := []Day{}
	for _, s := range seminars {
		fields := strings.Split(s.DateTime, " ")
		if len(fields) < 2 {
			continue
		}
		key := fields[0] + " " + fields[1]
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, Day{Key: key, Name: fields[0]})
	}
	return days
}
