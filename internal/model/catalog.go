package model

// Catalog is the loaded, read-only list of seminars with an id index.
// Seminar order is the document order and is significant: slot members
// and facet options follow it.
type Catalog struct {
	seminars []Seminar
	byID     map[ID]int
}

// NewCatalog indexes seminars by id. When ids repeat, the first occurrence
// wins for lookups; Duplicates reports the rest.
func NewCatalog(seminars []Seminar) *Catalog {
	c := &Catalog{
		seminars: seminars,
		byID:     make(map[ID]int, len(seminars)),
	}
	for i, s := range seminars {
		if _, ok := c.byID[s.ID]; ok {
			continue
		}
		c.byID[s.ID] = i
	}
	return c
}

// Seminars returns the seminars in document order. Callers must not modify
// the returned slice.
func (c *Catalog) Seminars() []Seminar {
	if c == nil {
		return nil
	}
	return c.seminars
}

// Len returns the number of seminars.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.seminars)
}

// Lookup finds a seminar by id.
func (c *Catalog) Lookup(id ID) (Seminar, bool) {
	if c == nil {
		return Seminar{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Seminar{}, false
	}
	return c.seminars[i], true
}

// Duplicates lists ids that appear more than once, in document order.
func (c *Catalog) Duplicates() []ID {
	if c == nil {
		return nil
	}
	seen := make(map[ID]int, len(c.seminars))
	var dups []ID
	for _, s := range c.seminars {
		seen[s.ID]++
		if seen[s.ID] == 2 {
			dups = append(dups, s.ID)
		}
	}
	return dups
}
