// Package session is the host-side state container: it restores the user's
// state at startup, applies commands, and mirrors selections into the
// key-value store.
package session

import (
	"context"
	"errors"

	appLog "vitalis/internal/log"
	"vitalis/internal/model"
	"vitalis/internal/schedule"
	"vitalis/internal/state"
	"vitalis/internal/store"
)

// Session owns one user's state. It is not safe for concurrent use.
type Session struct {
	kv      store.KV
	catalog *model.Catalog
	st      state.State

	// rememberToken also writes the encoded state under store.StateKey,
	// for hosts that have no URL to carry it.
	rememberToken bool
}

// Restore builds the startup state. A decodable token wins; otherwise the
// state is the default with the first catalog day active and the
// selections read back from the store.
func Restore(ctx context.Context, token string, kv store.KV, catalog *model.Catalog) *Session {
	s := &Session{kv: kv, catalog: catalog}
	if token != "" {
		if st, ok := state.Decode(token); ok {
			s.st = st
			return s
		}
	}

	st := state.Default()
	if days := schedule.Days(catalog.Seminars()); len(days) > 0 {
		st = st.WithDay(days[0].Key)
	}
	if kv != nil {
		sel, err := store.LoadSelections(ctx, kv)
		if err != nil {
			appLog.Warn("ignoring stored selections", "err", err)
		} else {
			st.Selections = sel
		}
	}
	s.st = st
	return s
}

// Load restores from the token last remembered in kv and keeps remembering
// it after every change. The CLI runs on this.
func Load(ctx context.Context, kv store.KV, catalog *model.Catalog) *Session {
	token, err := kv.Get(ctx, store.StateKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		appLog.Warn("failed to read stored state", "err", err)
	}
	s := Restore(ctx, token, kv, catalog)
	s.rememberToken = true
	return s
}

// State returns a copy of the current state.
func (s *Session) State() state.State {
	return s.st.Clone()
}

// Catalog is the catalog the session resolves ids against.
func (s *Session) Catalog() *model.Catalog {
	return s.catalog
}

// Token encodes the current state for a share link.
func (s *Session) Token() (string, error) {
	return state.Encode(s.st)
}

// ToggleSeminar selects id in slot, or deselects it when it is already the
// slot's choice, and returns the verdict for id against the other slots.
// A seminar from another day held under the same label is reported as
// Displaces when no overlap is found.
func (s *Session) ToggleSeminar(ctx context.Context, slot string, id model.ID) schedule.Verdict {
	verdict := s.verdict(slot, id)
	s.st.Selections = schedule.ToggleSelection(s.st.Selections, slot, id)
	s.persistSelections(ctx)
	s.persistToken(ctx)
	return verdict
}

var (
	// ErrConflict is returned by TryToggle when the seminar overlaps a
	// selection in another slot.
	ErrConflict = errors.New("session: seminar overlaps an existing selection")

	// ErrDisplaced is returned by TryToggle when the slot label is held by
	// a seminar on another day.
	ErrDisplaced = errors.New("session: slot is held by a seminar on another day")
)

// TryToggle is ToggleSeminar guarded the way the planner UI is: selecting
// a seminar that overlaps a choice in another slot, or that would replace
// a choice made on another day, is refused unless force is set.
// Deselecting and same-day replacement always succeed.
func (s *Session) TryToggle(ctx context.Context, slot string, id model.ID, force bool) (schedule.Verdict, error) {
	if s.st.Selections[slot] != id && !force {
		switch v := s.verdict(slot, id); v.Status {
		case schedule.Conflict:
			return v, ErrConflict
		case schedule.Displaces:
			return v, ErrDisplaced
		}
	}
	return s.ToggleSeminar(ctx, slot, id), nil
}

// verdict checks id against every selection except slot's own entry,
// which a toggle replaces rather than sits beside.
func (s *Session) verdict(slot string, id model.ID) schedule.Verdict {
	sem, ok := s.catalog.Lookup(id)
	if !ok {
		return schedule.Verdict{}
	}
	others := s.st.Selections.Clone()
	delete(others, slot)
	v := schedule.Check(sem, others, s.catalog)
	if v.Status == schedule.Conflict {
		return v
	}
	if d, ok := schedule.Displaced(sem, slot, s.st.Selections, s.catalog); ok {
		return d
	}
	return v
}

// Adopt replaces the whole state, as opening a share link does.
func (s *Session) Adopt(ctx context.Context, st state.State) {
	s.st = st.Clone()
	s.persistSelections(ctx)
	s.persistToken(ctx)
}

// ClearSelections drops every selection.
func (s *Session) ClearSelections(ctx context.Context) {
	s.st.Selections = model.Selections{}
	s.persistSelections(ctx)
	s.persistToken(ctx)
}

// ReplaceSelections installs sel wholesale (used by imports).
func (s *Session) ReplaceSelections(ctx context.Context, sel model.Selections) {
	s.st.Selections = sel.Clone()
	s.persistSelections(ctx)
	s.persistToken(ctx)
}

func (s *Session) ToggleFilter(ctx context.Context, facet model.Facet, value string) {
	s.st.Filters = schedule.ToggleFilter(s.st.Filters, facet, value)
	s.persistToken(ctx)
}

func (s *Session) ClearFilters(ctx context.Context) {
	s.st.Filters = schedule.ClearFilters()
	s.persistToken(ctx)
}

func (s *Session) SetDay(ctx context.Context, day string) {
	s.st = s.st.WithDay(day)
	s.persistToken(ctx)
}

// SetView switches the presentation mode. Unknown views are rejected.
func (s *Session) SetView(ctx context.Context, v state.View) error {
	if !v.Valid() {
		return errors.New("session: unknown view " + string(v))
	}
	s.st.View = v
	s.persistToken(ctx)
	return nil
}

func (s *Session) SetQuery(ctx context.Context, query string) {
	s.st.Query = query
	s.persistToken(ctx)
}

// Slots groups the active day's seminars under the current filters and
// search query.
func (s *Session) Slots() []schedule.TimeSlot {
	return schedule.GroupByTimeSlot(s.catalog.Seminars(), s.st.ActiveDay(), s.st.Filters, s.st.Query)
}

// Check is the conflict verdict for id against the current selections.
func (s *Session) Check(id model.ID) (schedule.Verdict, bool) {
	sem, ok := s.catalog.Lookup(id)
	if !ok {
		return schedule.Verdict{}, false
	}
	return schedule.Check(sem, s.st.Selections, s.catalog), true
}

// persistSelections mirrors selections into the store. Failures are
// logged and otherwise ignored; the in-memory state stays authoritative.
func (s *Session) persistSelections(ctx context.Context) {
	if s.kv == nil {
		return
	}
	if err := store.SaveSelections(ctx, s.kv, s.st.Selections); err != nil {
		appLog.Error("failed to persist selections", err)
	}
}

func (s *Session) persistToken(ctx context.Context) {
	if s.kv == nil || !s.rememberToken {
		return
	}
	token, err := s.Token()
	if err != nil {
		appLog.Error("failed to encode state", err)
		return
	}
	if err := s.kv.Set(ctx, store.StateKey, token); err != nil {
		appLog.Error("failed to persist state", err)
	}
}
