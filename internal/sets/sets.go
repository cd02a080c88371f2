// Package sets provides the unordered string set used for accessions and
// family codes.
package sets

import (
	"sort"
	"strings"
)

// Strings is an unordered set of strings. The zero value is not usable; use New.
type Strings map[string]struct{}

// New returns a set holding items.
func New(items ...string) Strings {
	s := make(Strings, len(items))
	s.Add(items...)
	return s
}

// Add inserts items into s.
func (s Strings) Add(items ...string) {
	for _, it := range items {
		s[it] = struct{}{}
	}
}

// AddAll inserts every element of other into s.
func (s Strings) AddAll(other Strings) {
	for it := range other {
		s[it] = struct{}{}
	}
}

// Has reports whether item is in s.
func (s Strings) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of elements.
func (s Strings) Len() int { return len(s) }

// Clone returns an independent copy of s.
func (s Strings) Clone() Strings {
	out := make(Strings, len(s))
	out.AddAll(s)
	return out
}

// Equal reports whether s and other hold the same elements.
func (s Strings) Equal(other Strings) bool {
	if len(s) != len(other) {
		return false
	}
	for it := range s {
		if !other.Has(it) {
			return false
		}
	}
	return true
}

// Sorted returns the elements in ascending order.
func (s Strings) Sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

// Join returns the sorted elements joined by sep.
func (s Strings) Join(sep string) string {
	return strings.Join(s.Sorted(), sep)
}
