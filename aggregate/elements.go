package aggregate

import (
	"maps"
	"slices"
)

// Elements is a set of string elements.
type Elements map[string]struct{}

// NewElements returns a set containing the given values. Duplicate values are
// collapsed.
func NewElements(values ...string) Elements {
	e := make(Elements, len(values))
	for _, v := range values {
		e[v] = struct{}{}
	}
	return e
}

// Has returns true if v is a member of the set.
func (e Elements) Has(v string) bool {
	_, ok := e[v]
	return ok
}

// Len returns the number of members in the set.
func (e Elements) Len() int {
	return len(e)
}

// Intersect returns a new set containing the members common to e and o.
func (e Elements) Intersect(o Elements) Elements {
	small, large := e, o
	if len(large) < len(small) {
		small, large = large, small
	}

	out := make(Elements, len(small))
	for v := range small {
		if large.Has(v) {
			out[v] = struct{}{}
		}
	}

	return out
}

// Clone returns a copy of the set.
func (e Elements) Clone() Elements {
	if e == nil {
		return Elements{}
	}
	return maps.Clone(e)
}

// Sorted returns the members of the set in lexical order.
//
// The result is never nil, so an empty set encodes as an empty list rather
// than null.
func (e Elements) Sorted() []string {
	out := slices.Collect(maps.Keys(e))
	if out == nil {
		return []string{}
	}
	slices.Sort(out)
	return out
}
