package schedule

import (
	"strings"

	"vitalis/internal/model"
)

// BuildFacetOptions collects the distinct values of each facet across the
// catalog, in first-seen order. List-valued fields (Målgrupp) are
// flattened; empty strings are skipped.
func BuildFacetOptions(seminars []model.Seminar) model.FacetOptions {
	opts := make(model.FacetOptions, len(model.Facets))
	for _, facet := range model.Facets {
		key := facet.MetadataKey()
		seen := make(map[string]struct{})
		values := []string{}
		for _, s := range seminars {
			for _, v := range s.Metadata[key] {
				if v == "" {
					continue
				}
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				values = append(values, v)
			}
		}
		opts[facet] = values
	}
	return opts
}

// PassesFilters reports whether the seminar satisfies every facet filter.
// An empty active set passes everything; otherwise the seminar must hold
// at least one of the active values, so a seminar without the field fails.
func PassesFilters(s model.Seminar, filters model.Filters) bool {
	for _, facet := range model.Facets {
		active := filters[facet]
		if len(active) == 0 {
			continue
		}
		if !intersects(s.Metadata[facet.MetadataKey()], active) {
			return false
		}
	}
	return true
}

func intersects(values model.Values, active []string) bool {
	for _, v := range values {
		if v == "" {
			continue
		}
		for _, a := range active {
			if v == a {
				return true
			}
		}
	}
	return false
}

// PassesSearch does a case-insensitive substring match of query against
// title, location, speaker name/title/organization and every metadata
// value. A blank query matches everything.
func PassesSearch(s model.Seminar, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}

	contains := func(field string) bool {
		return field != "" && strings.Contains(strings.ToLower(field), q)
	}

	if contains(s.Title) || contains(s.Location) {
		return true
	}
	for _, sp := range s.Speakers {
		if contains(sp.Name) || contains(sp.Title) || contains(sp.Organization) {
			return true
		}
	}
	for _, values := range s.Metadata {
		for _, v := range values {
			if contains(v) {
				return true
			}
		}
	}
	return false
}

// Matches combines the facet filters and the free-text search.
func Matches(s model.Seminar, filters model.Filters, query string) bool {
	return PassesFilters(s, filters) && PassesSearch(s, query)
}
