package inventory

import (
	"sort"
	"strings"
)

// TagSet is a canonical (sorted, deduplicated) set of condition and material
// tags on an item stack. The zero value is the empty set.
type TagSet []string

// NewTagSet builds a canonical tag set from arbitrary input.
func NewTagSet(tags ...string) TagSet {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Key returns a stable string form usable as part of a map key.
func (s TagSet) Key() string {
	return strings.Join(s, ",")
}

// Has reports whether the set contains the tag.
func (s TagSet) Has(tag string) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// SupersetOf reports whether every tag in other is present in s.
// An empty filter matches every set.
func (s TagSet) SupersetOf(other TagSet) bool {
	for _, t := range other {
		if !s.Has(t) {
			return false
		}
	}
	return true
}

// With returns a new set containing the receiver's tags plus the given ones.
func (s TagSet) With(tags ...string) TagSet {
	return NewTagSet(append(append([]string{}, s...), tags...)...)
}

// Without returns a new set with the given tag removed.
func (s TagSet) Without(tag string) TagSet {
	out := make([]string, 0, len(s))
	for _, t := range s {
		if t != tag {
			out = append(out, t)
		}
	}
	return NewTagSet(out...)
}
