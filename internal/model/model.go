package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

// ID identifies a seminar. The catalog may carry ids as JSON numbers or
// strings; both are held as their literal text so equality is exact.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return errors.New("model: empty id")
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.New("model: id must be a string or a number")
		}
		*id = ID(n.String())
		return nil
	}
}

// MarshalJSON writes integral ids back as JSON numbers so that encoded
// state stays compatible with tokens produced by the browser app.
func (id ID) MarshalJSON() ([]byte, error) {
	if isIntegral(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isIntegral(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" || len(s) > 15 {
		return false
	}
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Speaker is one presenter of a seminar. Only Name is guaranteed.
type Speaker struct {
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	Organization string `json:"organization,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
}

// Seminar is a single catalog entry. It is immutable for the lifetime of a
// loaded catalog.
type Seminar struct {
	ID       ID     `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`

	// DateTime is the raw schedule text, e.g.
	// "Måndag 12 maj 2025 10:00 - 11:00". It is never normalized; the
	// day and slot keys are substrings of it.
	DateTime string `json:"date_time"`

	Speakers    []Speaker `json:"speakers,omitempty"`
	Description string    `json:"description,omitempty"`
	Metadata    Metadata  `json:"metadata,omitempty"`
}

// Values holds a metadata value. The source document uses either a single
// string or a list of strings (Målgrupp); a single string is kept as a
// one-element list so both shapes compare the same way.
type Values []string

func (v *Values) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = nil
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Values{s}
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(Values, 0, len(raw))
		for _, item := range raw {
			// Non-string list items are ignored.
			item = bytes.TrimSpace(item)
			if len(item) == 0 || item[0] != '"' {
				continue
			}
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				out = append(out, s)
			}
		}
		*v = out
	default:
		// Numbers, booleans, objects: not searchable or filterable.
		*v = nil
	}
	return nil
}

func (v Values) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(v))
}

// Contains reports whether s is one of the values.
func (v Values) Contains(s string) bool {
	for _, x := range v {
		if x == s {
			return true
		}
	}
	return false
}

// Metadata maps a metadata field name (e.g. "Språk") to its values.
type Metadata map[string]Values

// Selections maps a time-slot label to the seminar selected in it.
// At most one seminar per label.
type Selections map[string]ID

// Clone returns an independent copy; a nil receiver yields an empty map.
func (s Selections) Clone() Selections {
	out := make(Selections, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Labels returns the slot labels in ascending order.
func (s Selections) Labels() []string {
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}
