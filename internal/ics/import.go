package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	ical "github.com/arran4/golang-ical"

	appLog "vitalis/internal/log"
	"vitalis/internal/model"
	"vitalis/internal/schedule"
)

// ErrEmpty is returned by ReadSchedule for an empty payload.
var ErrEmpty = errors.New("ics: empty calendar")

// ReadSchedule parses a calendar written by ExportSchedule back into
// selections. Events without our UID suffix are ignored. When an event
// lacks the slot property the slot label is derived from the catalog,
// which may be nil if every event carries one.
func ReadSchedule(body []byte, catalog *model.Catalog) (model.Selections, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmpty
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse: %w", err)
	}

	out := model.Selections{}
	for _, ev := range cal.Events() {
		uid := ""
		if p := ev.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
			uid = strings.TrimSpace(p.Value)
		}
		id, ok := strings.CutSuffix(uid, uidSuffix)
		if !ok || id == "" {
			appLog.Debug("ics import: skipping foreign event", "uid", uid)
			continue
		}

		slot := ""
		if p := ev.GetProperty(propertySlot); p != nil {
			slot = strings.TrimSpace(p.Value)
		}
		if slot == "" {
			sem, found := catalog.Lookup(model.ID(id))
			if !found {
				appLog.Warn("ics import: unknown seminar without slot", "id", id)
				continue
			}
			label, ok := schedule.OwnSlot(sem)
			if !ok {
				label = sem.DateTime
			}
			slot = label
		}
		out[slot] = model.ID(id)
	}

	appLog.Info("ics import completed", "selections", len(out))
	return out, nil
}
