// Package ics writes a personal schedule as an iCalendar file and reads it
// back. Times are floating local times: the catalog carries no timezone.
package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "vitalis/internal/log"
	"vitalis/internal/model"
	"vitalis/internal/schedule"
)

const (
	productID = "-//vitalis//seminar planner//SV"
	uidSuffix = "@vitalis"

	// propertySlot records the slot label so an import can rebuild the
	// selections exactly.
	propertySlot = ical.ComponentProperty("X-VITALIS-SLOT")

	floatingLayout = "20060102T150405"
)

// ExportOptions tunes the generated calendar.
type ExportOptions struct {
	// Name is written as X-WR-CALNAME when set.
	Name string
	// ShareURL, when set, is attached to every event.
	ShareURL string
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// ExportSchedule renders the selected seminars as an RFC 5545 calendar.
// Selections whose seminar is missing or whose date_time cannot be read as
// a date and time range are skipped with a warning.
func ExportSchedule(selections model.Selections, catalog *model.Catalog, opts ExportOptions) ([]byte, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	written := 0
	for _, slot := range selections.Labels() {
		id := selections[slot]
		sem, ok := catalog.Lookup(id)
		if !ok {
			appLog.Warn("ics export: selected seminar not in catalog", "id", id, "slot", slot)
			continue
		}
		start, end, ok := eventTimes(sem.DateTime)
		if !ok {
			appLog.Warn("ics export: unreadable date_time", "id", id, "date_time", sem.DateTime)
			continue
		}

		ev := cal.AddEvent(string(sem.ID) + uidSuffix)
		ev.SetDtStampTime(now)
		ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(floatingLayout))
		ev.SetProperty(ical.ComponentPropertyDtEnd, end.Format(floatingLayout))
		ev.SetSummary(sem.Title)
		if sem.Location != "" {
			ev.SetLocation(sem.Location)
		}
		if desc := describe(sem); desc != "" {
			ev.SetDescription(desc)
		}
		if opts.ShareURL != "" {
			ev.SetProperty(ical.ComponentPropertyUrl, opts.ShareURL)
		}
		ev.SetProperty(propertySlot, slot)
		written++
	}

	appLog.Info("ics export completed", "selections", len(selections), "events", written)
	return []byte(cal.Serialize()), nil
}

// eventTimes combines the written date with the clock range.
func eventTimes(raw string) (time.Time, time.Time, bool) {
	date, ok := schedule.ParseDate(raw)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	month := schedule.MonthNumber(date.Month)
	if month == 0 {
		return time.Time{}, time.Time{}, false
	}
	iv, ok := schedule.Parse(raw)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	day := time.Date(date.Year, time.Month(month), date.Day, 0, 0, 0, 0, time.Local)
	start := day.Add(time.Duration(iv.StartMinutes) * time.Minute)
	end := day.Add(time.Duration(iv.EndMinutes) * time.Minute)
	if end.Before(start) {
		end = start
	}
	return start, end, true
}

func describe(sem model.Seminar) string {
	var lines []string
	for _, sp := range sem.Speakers {
		line := sp.Name
		for _, extra := range []string{sp.Title, sp.Organization} {
			if extra != "" {
				line += ", " + extra
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if sem.Description != "" {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, sem.Description)
	}
	return strings.Join(lines, "\n")
}
