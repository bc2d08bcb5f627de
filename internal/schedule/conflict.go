package schedule

import (
	appLog "vitalis/internal/log"
	"vitalis/internal/model"
)

// Status is the outcome of a conflict check.
type Status int

const (
	// NoConflict: no selected seminar overlaps the candidate.
	NoConflict Status = iota
	// Conflict: a selected seminar on the same day overlaps the candidate.
	Conflict
	// Indeterminate: the candidate's date_time could not be parsed. Callers
	// treat it as NoConflict so a parse error never blocks a selection.
	Indeterminate
	// Displaces: the target slot label is held by a seminar on another day.
	// Labels drop only the weekday and day number, so the same month and
	// time recur across days and a toggle would replace that selection.
	Displaces
)

func (s Status) String() string {
	switch s {
	case Conflict:
		return "conflict"
	case Indeterminate:
		return "indeterminate"
	case Displaces:
		return "displaces"
	default:
		return "none"
	}
}

// Verdict carries the status and, for Conflict and Displaces, the selected
// seminar concerned and its slot.
type Verdict struct {
	Status Status
	With   model.ID
	Slot   string
}

// Check decides whether selecting candidate would overlap an existing
// selection on the same day. Selections pointing at the candidate itself,
// at ids missing from the catalog, or at seminars whose date_time does not
// parse are skipped.
func Check(candidate model.Seminar, selections model.Selections, catalog *model.Catalog) Verdict {
	if len(selections) == 0 {
		return Verdict{Status: NoConflict}
	}

	cand, ok := Parse(candidate.DateTime)
	if !ok {
		appLog.Warn("unparseable datetime; skipping conflict check", "id", candidate.ID, "date_time", candidate.DateTime)
		return Verdict{Status: Indeterminate}
	}

	for _, slot := range selections.Labels() {
		id := selections[slot]
		if id == "" || id == candidate.ID {
			continue
		}
		selected, ok := catalog.Lookup(id)
		if !ok || selected.DateTime == "" {
			continue
		}
		other, ok := Parse(selected.DateTime)
		if !ok {
			continue
		}
		if cand.Day != other.Day || !Overlap(cand, other) {
			continue
		}

		appLog.Debug("conflict detected",
			"candidate", candidate.ID,
			"candidate_time", formatClock(cand.StartMinutes)+"-"+formatClock(cand.EndMinutes),
			"selected", selected.ID,
			"selected_time", formatClock(other.StartMinutes)+"-"+formatClock(other.EndMinutes),
		)
		return Verdict{Status: Conflict, With: selected.ID, Slot: slot}
	}

	return Verdict{Status: NoConflict}
}

// Displaced reports the seminar that selecting candidate into slot would
// replace when that seminar falls on another day. Days are compared by the
// parsed day key when both date_times parse, else by the day prefix; a
// seminar with neither is never reported.
func Displaced(candidate model.Seminar, slot string, selections model.Selections, catalog *model.Catalog) (Verdict, bool) {
	held := selections[slot]
	if held == "" || held == candidate.ID {
		return Verdict{}, false
	}
	other, ok := catalog.Lookup(held)
	if !ok || sameDay(candidate, other) {
		return Verdict{}, false
	}
	return Verdict{Status: Displaces, With: held, Slot: slot}, true
}

func sameDay(a, b model.Seminar) bool {
	ia, okA := Parse(a.DateTime)
	ib, okB := Parse(b.DateTime)
	if okA && okB {
		return ia.Day == ib.Day
	}
	da, db := Days([]model.Seminar{a}), Days([]model.Seminar{b})
	if len(da) == 0 || len(db) == 0 {
		return true
	}
	return da[0].Key == db[0].Key
}

// HasConflict is Check with the fail-open policy applied: only a definite
// Conflict returns true.
func HasConflict(candidate model.Seminar, selections model.Selections, catalog *model.Catalog) bool {
	return Check(candidate, selections, catalog).Status == Conflict
}

// ConflictPair names two selected seminars that overlap.
type ConflictPair struct {
	A, B         model.ID
	SlotA, SlotB string
}

// Conflicts lists every overlapping pair among the current selections, in
// slot-label order. Each pair is reported once.
func Conflicts(selections model.Selections, catalog *model.Catalog) []ConflictPair {
	type entry struct {
		slot     string
		id       model.ID
		interval Interval
	}

	entries := make([]entry, 0, len(selections))
	for _, slot := range selections.Labels() {
		s, ok := catalog.Lookup(selections[slot])
		if !ok {
			continue
		}
		iv, ok := Parse(s.DateTime)
		if !ok {
			continue
		}
		entries = append(entries, entry{slot: slot, id: s.ID, interval: iv})
	}

	var out []ConflictPair
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if a.id == b.id || a.interval.Day != b.interval.Day || !Overlap(a.interval, b.interval) {
				continue
			}
			out = append(out, ConflictPair{A: a.id, B: b.id, SlotA: a.slot, SlotB: b.slot})
		}
	}
	return out
}

func formatClock(minutes int) string {
	return pad(minutes/60, 2) + ":" + pad(minutes%60, 2)
}
