// Package labels provides cluster label values and the immutable label sets
// shared by every layer of the curation engine.
//
// A Set never changes after construction. Every operation that would modify
// a set returns a new one, so sets can be handed to observers without
// copying and without risk of mutation through a shared reference.
package labels

import (
	"fmt"
	"slices"
	"strings"
)

// Label identifies a cluster node within one dataset snapshot.
// Labels may be reused across snapshots; they are not stable identities.
type Label int

// Set is an immutable set of labels. The zero value is the empty set.
type Set struct {
	m map[Label]struct{}
}

// Of returns a set containing the given labels.
func Of(ls ...Label) Set {
	return FromSlice(ls)
}

// FromSlice returns a set containing the labels in ls. Duplicates collapse.
func FromSlice(ls []Label) Set {
	if len(ls) == 0 {
		return Set{}
	}
	m := make(map[Label]struct{}, len(ls))
	for _, l := range ls {
		m[l] = struct{}{}
	}
	return Set{m: m}
}

// Len returns the number of labels in the set.
func (s Set) Len() int {
	return len(s.m)
}

// Empty reports whether the set has no labels.
func (s Set) Empty() bool {
	return len(s.m) == 0
}

// Contains reports whether l is in the set.
func (s Set) Contains(l Label) bool {
	_, ok := s.m[l]
	return ok
}

// Equal reports set equality (same members, order irrelevant).
func (s Set) Equal(o Set) bool {
	if len(s.m) != len(o.m) {
		return false
	}
	for l := range s.m {
		if _, ok := o.m[l]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []Label {
	out := make([]Label, 0, len(s.m))
	for l := range s.m {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// With returns a new set that also contains l.
func (s Set) With(l Label) Set {
	m := s.clone(len(s.m) + 1)
	m[l] = struct{}{}
	return Set{m: m}
}

// Without returns a new set that does not contain l.
func (s Set) Without(l Label) Set {
	m := s.clone(len(s.m))
	delete(m, l)
	return Set{m: m}
}

// Union returns s ∪ o.
func (s Set) Union(o Set) Set {
	m := s.clone(len(s.m) + len(o.m))
	for l := range o.m {
		m[l] = struct{}{}
	}
	return Set{m: m}
}

// Intersect returns s ∩ o.
func (s Set) Intersect(o Set) Set {
	small, big := s, o
	if len(big.m) < len(small.m) {
		small, big = big, small
	}
	m := make(map[Label]struct{})
	for l := range small.m {
		if _, ok := big.m[l]; ok {
			m[l] = struct{}{}
		}
	}
	return Set{m: m}
}

// Minus returns s \ o.
func (s Set) Minus(o Set) Set {
	m := make(map[Label]struct{}, len(s.m))
	for l := range s.m {
		if _, ok := o.m[l]; !ok {
			m[l] = struct{}{}
		}
	}
	return Set{m: m}
}

// SymmetricDifference returns the labels present in exactly one of s and o.
func (s Set) SymmetricDifference(o Set) Set {
	return s.Minus(o).Union(o.Minus(s))
}

// String renders the set as {1, 2, 3} in ascending order.
func (s Set) String() string {
	parts := make([]string, 0, len(s.m))
	for _, l := range s.Sorted() {
		parts = append(parts, fmt.Sprint(int(l)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (s Set) clone(capacity int) map[Label]struct{} {
	m := make(map[Label]struct{}, capacity)
	for l := range s.m {
		m[l] = struct{}{}
	}
	return m
}

// Optional is a label that may be absent. The zero value is None.
type Optional struct {
	label Label
	ok    bool
}

// None is the absent label.
var None = Optional{}

// Some wraps a present label.
func Some(l Label) Optional {
	return Optional{label: l, ok: true}
}

// Get returns the label and whether it is present.
func (o Optional) Get() (Label, bool) {
	return o.label, o.ok
}

// Valid reports whether a label is present.
func (o Optional) Valid() bool {
	return o.ok
}

func (o Optional) String() string {
	if !o.ok {
		return "none"
	}
	return fmt.Sprint(int(o.label))
}

// Labeled is anything exposing a label set, typically a dataset snapshot.
type Labeled interface {
	Labels() Set
}

// Changed returns the labels present in exactly one of a and b.
//
// The result approximates identity discontinuities across an edit: labels
// that did not survive unchanged. A transform that reuses a label for new
// content is reported as unchanged for that label.
func Changed(a, b Labeled) Set {
	return a.Labels().SymmetricDifference(b.Labels())
}
