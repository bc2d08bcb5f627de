package model

// Facet is one of the four metadata dimensions available for filtering.
type Facet string

const (
	FacetLanguage Facet = "språk"
	FacetSubject  Facet = "ämne"
	FacetAudience Facet = "målgrupp"
	FacetLevel    Facet = "kunskapsnivå"
)

// Facets lists every facet in display (and encoding) order.
var Facets = []Facet{FacetLanguage, FacetSubject, FacetAudience, FacetLevel}

// MetadataKey is the seminar metadata field backing the facet.
func (f Facet) MetadataKey() string {
	switch f {
	case FacetLanguage:
		return "Språk"
	case FacetSubject:
		return "Ämne"
	case FacetAudience:
		return "Målgrupp"
	case FacetLevel:
		return "Kunskapsnivå"
	}
	return ""
}

// Code is the single-letter key used in encoded state.
func (f Facet) Code() string {
	switch f {
	case FacetLanguage:
		return "s"
	case FacetSubject:
		return "a"
	case FacetAudience:
		return "m"
	case FacetLevel:
		return "k"
	}
	return ""
}

// Valid reports whether f is one of the known facets.
func (f Facet) Valid() bool {
	return f.MetadataKey() != ""
}

// Filters maps a facet to its active values. A missing or empty entry means
// no restriction on that facet.
type Filters map[Facet][]string

// NewFilters returns filters with an empty (non-nil) set for every facet.
func NewFilters() Filters {
	f := make(Filters, len(Facets))
	for _, facet := range Facets {
		f[facet] = []string{}
	}
	return f
}

// Clone deep-copies the filters, normalizing to all four facets.
func (f Filters) Clone() Filters {
	out := NewFilters()
	for _, facet := range Facets {
		out[facet] = append(out[facet], f[facet]...)
	}
	return out
}

// FacetOptions holds the distinct values present in a catalog per facet.
type FacetOptions map[Facet][]string
