package analysis

import "sort"

// Set is a string set; all analysis results are order-insensitive.
type Set map[string]struct{}

func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

func (s Set) Add(name string) {
	s[name] = struct{}{}
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s Set) AddAll(other Set) {
	for name := range other {
		s[name] = struct{}{}
	}
}

// Diff returns s minus every given set.
func (s Set) Diff(others ...Set) Set {
	out := make(Set)
outer:
	for name := range s {
		for _, other := range others {
			if other.Has(name) {
				continue outer
			}
		}
		out.Add(name)
	}
	return out
}

// Intersect returns the names present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for name := range s {
		if other.Has(name) {
			out.Add(name)
		}
	}
	return out
}

// Sorted returns the members in lexicographic order, for deterministic
// output and stable tests.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
