// Package state holds the planner's user state and its compact, URL-safe
// encoding. The encoding matches the browser app's share links, so tokens
// can be exchanged between the two.
package state

import (
	"strings"

	"vitalis/internal/model"
)

// QueryKey is the URL query parameter that carries the encoded state.
const QueryKey = "s"

// View is the active presentation mode.
type View string

const (
	ViewList       View = "list"
	ViewCalendar   View = "calendar"
	ViewMySchedule View = "mySchedule"
)

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	switch v {
	case ViewList, ViewCalendar, ViewMySchedule:
		return true
	}
	return false
}

// State is everything a user has chosen: selections, filters and view.
type State struct {
	Selections model.Selections
	Filters    model.Filters
	// Day is the active day prefix (e.g. "Måndag 12"); nil when none.
	Day   *string
	View  View
	Query string
}

// Default is the state of a fresh session.
func Default() State {
	return State{
		Selections: model.Selections{},
		Filters:    model.NewFilters(),
		View:       ViewList,
	}
}

// ActiveDay returns the day prefix or "" when unset.
func (s State) ActiveDay() string {
	if s.Day == nil {
		return ""
	}
	return *s.Day
}

// WithDay returns a copy with the active day set; "" clears it.
func (s State) WithDay(day string) State {
	if day == "" {
		s.Day = nil
		return s
	}
	s.Day = &day
	return s
}

// Clone deep-copies the state.
func (s State) Clone() State {
	out := s
	out.Selections = s.Selections.Clone()
	out.Filters = s.Filters.Clone()
	if s.Day != nil {
		d := *s.Day
		out.Day = &d
	}
	return out
}

// ShareURL is the page address carrying token in the "s" query parameter.
// The token is already percent-encoded.
func ShareURL(baseURL, token string) string {
	u := strings.TrimRight(baseURL, "/") + "/"
	if token != "" {
		u += "?" + QueryKey + "=" + token
	}
	return u
}

// TokenFromLink extracts the token from a share link. Input without a query
// string is taken as a bare token. The token is returned still escaped.
func TokenFromLink(link string) string {
	link = strings.TrimSpace(link)
	_, query, ok := strings.Cut(link, "?")
	if !ok {
		return link
	}
	query, _, _ = strings.Cut(query, "#")
	for _, part := range strings.Split(query, "&") {
		if v, ok := strings.CutPrefix(part, QueryKey+"="); ok {
			return v
		}
	}
	return ""
}
