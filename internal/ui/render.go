// Package ui renders planner state for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vitalis/internal/model"
	"vitalis/internal/schedule"
	"vitalis/internal/state"
	"vitalis/internal/ui/theme"
)

const (
	markSelected = "[x]"
	markOpen     = "[ ]"
	markBlocked  = "[!]"
)

// Days renders the day selector, highlighting active.
func Days(days []schedule.Day, active string) string {
	if len(days) == 0 {
		return theme.Muted.Render("no days in catalog")
	}
	var b strings.Builder
	for _, d := range days {
		if d.Key == active {
			b.WriteString(theme.Hot.Render("→ " + d.Key))
		} else {
			b.WriteString("  " + d.Key)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Slots renders the list view: one pane per time slot with each seminar
// marked selected, open or blocked by an overlapping choice.
func Slots(slots []schedule.TimeSlot, selections model.Selections, catalog *model.Catalog) string {
	if len(slots) == 0 {
		return theme.Muted.Render("no seminars match")
	}
	panes := make([]string, 0, len(slots))
	for _, slot := range slots {
		var lines []string
		lines = append(lines, theme.Title.Render(slot.Label))
		for _, s := range slot.Seminars {
			lines = append(lines, seminarLine(s, slot.Label, selections, catalog))
		}
		style := theme.Pane
		if _, ok := selections[slot.Label]; ok {
			style = theme.PaneActive
		}
		panes = append(panes, style.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panes...)
}

func seminarLine(s model.Seminar, slot string, selections model.Selections, catalog *model.Catalog) string {
	label := fmt.Sprintf("#%s %s", s.ID, s.Title)
	text := markOpen + " " + label
	switch {
	case selections[slot] == s.ID:
		text = theme.Selected.Render(markSelected + " " + label)
	case schedule.HasConflict(s, selections, catalog):
		text = theme.Danger.Render(markBlocked + " " + label)
	}
	if s.Location != "" {
		text += " " + theme.Muted.Render("@ "+s.Location)
	}
	return text
}

// Calendar renders the calendar view as one column per location.
func Calendar(layout schedule.CalendarLayout, selections model.Selections) string {
	if len(layout.Columns) == 0 {
		return theme.Muted.Render("no seminars match")
	}
	chosen := make(map[model.ID]bool, len(selections))
	for _, id := range selections {
		chosen[id] = true
	}

	cols := make([]string, 0, len(layout.Columns))
	for _, col := range layout.Columns {
		lines := []string{theme.Title.Render(col.Location)}
		for _, blk := range col.Blocks {
			start := layout.DayStart + blk.OffsetMinutes
			line := fmt.Sprintf("%s-%s %s",
				clock(start), clock(start+blk.DurationMinutes), blk.Seminar.Title)
			if chosen[blk.Seminar.ID] {
				line = theme.Selected.Render(line)
			}
			lines = append(lines, line)
		}
		cols = append(cols, theme.Pane.Render(strings.Join(lines, "\n")))
	}
	header := theme.Muted.Render(fmt.Sprintf("%s-%s, %d h", clock(layout.DayStart), clock(layout.DayEnd), layout.Hours()))
	return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
}

// Agenda renders the personal schedule, flagging overlapping entries.
func Agenda(days []schedule.AgendaDay) string {
	if len(days) == 0 {
		return theme.Muted.Render("no seminars selected")
	}
	panes := make([]string, 0, len(days))
	for _, d := range days {
		lines := []string{theme.Title.Render(d.Date)}
		for _, e := range d.Entries {
			line := fmt.Sprintf("%-13s #%s %s", e.Time, e.Seminar.ID, e.Seminar.Title)
			if e.Seminar.Location != "" {
				line += " " + theme.Muted.Render("@ "+e.Seminar.Location)
			}
			if e.Conflict {
				line = theme.Danger.Render("!") + " " + line
			}
			lines = append(lines, line)
		}
		panes = append(panes, theme.Pane.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panes...)
}

// Verdict describes the outcome of a toggle for the user.
func Verdict(s model.Seminar, v schedule.Verdict, selected bool) string {
	switch {
	case v.Status == schedule.Conflict && !selected:
		return theme.Danger.Render(fmt.Sprintf("#%s overlaps #%s (%s)", s.ID, v.With, v.Slot))
	case v.Status == schedule.Conflict:
		return theme.Hot.Render(fmt.Sprintf("selected #%s, but it overlaps #%s (%s)", s.ID, v.With, v.Slot))
	case v.Status == schedule.Displaces && !selected:
		return theme.Danger.Render(fmt.Sprintf("#%s would replace #%s, chosen on another day under the same slot (%s)", s.ID, v.With, v.Slot))
	case v.Status == schedule.Displaces:
		return theme.Hot.Render(fmt.Sprintf("selected #%s, replacing #%s from another day (%s)", s.ID, v.With, v.Slot))
	case v.Status == schedule.Indeterminate:
		msg := fmt.Sprintf("#%s has no readable time; overlap not checked", s.ID)
		if selected {
			msg = "selected " + msg
		}
		return theme.Hot.Render(msg)
	case selected:
		return theme.Selected.Render(fmt.Sprintf("selected #%s %s", s.ID, s.Title))
	default:
		return theme.Muted.Render(fmt.Sprintf("deselected #%s %s", s.ID, s.Title))
	}
}

// Status is the one-line summary above every view.
func Status(st state.State, count int) string {
	parts := []string{theme.Title.Render(orNone(st.ActiveDay()))}
	parts = append(parts, "view "+string(st.View))
	if st.Query != "" {
		parts = append(parts, fmt.Sprintf("search %q: %d", st.Query, count))
	}
	if n := schedule.CountActiveFilters(st.Filters); n > 0 {
		parts = append(parts, fmt.Sprintf("%d filters", n))
	}
	parts = append(parts, fmt.Sprintf("%d selected", len(st.Selections)))
	return strings.Join(parts, theme.Muted.Render(" · "))
}

// Facets lists every facet's options with the active ones marked.
func Facets(options model.FacetOptions, active model.Filters) string {
	var lines []string
	for _, f := range model.Facets {
		lines = append(lines, theme.Title.Render(fmt.Sprintf("%s (%s)", f, f.Code())))
		on := make(map[string]bool)
		for _, v := range active[f] {
			on[v] = true
		}
		for _, v := range options[f] {
			if on[v] {
				lines = append(lines, theme.Selected.Render("  "+markSelected+" "+v))
			} else {
				lines = append(lines, "  "+markOpen+" "+v)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func orNone(s string) string {
	if s == "" {
		return "(no day)"
	}
	return s
}
