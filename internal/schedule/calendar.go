package schedule

import (
	"regexp"
	"sort"
	"strconv"

	"vitalis/internal/model"
)

const (
	defaultDayStart = 8 * 60
	defaultDayEnd   = 18 * 60
	defaultDuration = 60
)

var rangeRe = regexp.MustCompile(`(\d{2}):(\d{2})\s*-\s*(\d{2}):(\d{2})`)

// CalendarBlock positions one seminar in its location column.
type CalendarBlock struct {
	Seminar         model.Seminar `json:"seminar"`
	Slot            string        `json:"time_slot"`
	OffsetMinutes   int           `json:"offset_minutes"`
	DurationMinutes int           `json:"duration_minutes"`
}

// CalendarColumn holds the seminars of one location.
type CalendarColumn struct {
	Location string          `json:"location"`
	Blocks   []CalendarBlock `json:"blocks"`
}

// CalendarLayout is the grid for the calendar view of a single day.
type CalendarLayout struct {
	DayStart int              `json:"day_start"`
	DayEnd   int              `json:"day_end"`
	Columns  []CalendarColumn `json:"columns"`
}

// Hours is the number of whole hours the grid spans.
func (l CalendarLayout) Hours() int {
	return (l.DayEnd - l.DayStart) / 60
}

// LayoutCalendar places the day's matching seminars into one column per
// location (locations sorted). The visible window is 08:00-18:00, widened
// to fit every seminar and rounded out to whole hours. A seminar whose
// label has no clock time is placed at offset 0 with the default duration.
func LayoutCalendar(seminars []model.Seminar, day string, filters model.Filters, query string) CalendarLayout {
	layout := CalendarLayout{DayStart: defaultDayStart, DayEnd: defaultDayEnd, Columns: []CalendarColumn{}}
	if day == "" {
		return layout
	}

	type placed struct {
		seminar  model.Seminar
		slot     string
		start    int
		duration int
	}
	var items []placed
	for _, s := range seminars {
		slot, ok := SlotLabel(s, day)
		if !ok || !Matches(s, filters, query) {
			continue
		}
		it := placed{seminar: s, slot: slot, start: -1, duration: defaultDuration}
		if start, end, ok := slotRange(slot); ok {
			it.start, it.duration = start, end-start
		} else if clockRe.MatchString(slot) {
			it.start = StartMinutes(slot)
		}
		if it.start >= 0 {
			layout.DayStart = min(layout.DayStart, it.start)
			layout.DayEnd = max(layout.DayEnd, it.start+it.duration)
		}
		items = append(items, it)
	}

	layout.DayStart = (layout.DayStart / 60) * 60
	layout.DayEnd = min(((layout.DayEnd+59)/60)*60, minutesPerDay)

	byLocation := make(map[string][]CalendarBlock)
	for _, it := range items {
		// Labels without a clock time sit at the top of the grid.
		offset := 0
		if it.start >= 0 {
			offset = it.start - layout.DayStart
		}
		byLocation[it.seminar.Location] = append(byLocation[it.seminar.Location], CalendarBlock{
			Seminar:         it.seminar,
			Slot:            it.slot,
			OffsetMinutes:   offset,
			DurationMinutes: it.duration,
		})
	}
	locations := make([]string, 0, len(byLocation))
	for loc := range byLocation {
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	for _, loc := range locations {
		layout.Columns = append(layout.Columns, CalendarColumn{Location: loc, Blocks: byLocation[loc]})
	}
	return layout
}

func slotRange(slot string) (start, end int, ok bool) {
	m := rangeRe.FindStringSubmatch(slot)
	if m == nil {
		return 0, 0, false
	}
	n := make([]int, 4)
	for i := range n {
		n[i], _ = strconv.Atoi(m[i+1])
	}
	return n[0]*60 + n[1], n[2]*60 + n[3], true
}
