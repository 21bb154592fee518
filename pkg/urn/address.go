package urn

import (
	"strings"

	"github.com/pseudomuto/metatree/pkg/compare"
)

type (
	// Predicate is a single @Attribute='Value' equality term of a segment filter.
	Predicate struct {
		Attribute string
		Value     string
	}

	// Segment is one typed step of an address with its ANDed filter predicates.
	Segment struct {
		Type       string
		Predicates []Predicate
	}

	// Address is an immutable hierarchical path of typed, optionally filtered
	// segments, e.g. Server/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders'].
	//
	// The zero value is the empty address. Equality is structural: two addresses
	// are equal when they have the same segment types and the same predicates
	// (predicate order within a segment is irrelevant). Business ordering of
	// addresses is not defined here; see the resolve package.
	Address struct {
		segments []Segment
	}
)

// New builds an address from segments. The segments are copied.
func New(segments ...Segment) Address {
	out := make([]Segment, len(segments))
	for i, s := range segments {
		out[i] = s.clone()
	}
	return Address{segments: out}
}

// Get returns the value of the named attribute in the segment filter.
func (s Segment) Get(attribute string) (string, bool) {
	for _, p := range s.Predicates {
		if p.Attribute == attribute {
			return p.Value, true
		}
	}
	return "", false
}

// HasFilter reports whether the segment carries any predicate.
func (s Segment) HasFilter() bool {
	return len(s.Predicates) > 0
}

// Equal reports structural equality, ignoring predicate order.
func (s Segment) Equal(other Segment) bool {
	return s.Type == other.Type &&
		compare.SlicesUnordered(s.Predicates, other.Predicates, func(a, b Predicate) bool { return a == b })
}

// String renders the segment, e.g. Table[@Schema='dbo' and @Name='Orders'].
func (s Segment) String() string {
	if len(s.Predicates) == 0 {
		return s.Type
	}
	return s.Type + "[" + FormatPredicates(s.Predicates) + "]"
}

func (s Segment) clone() Segment {
	out := Segment{Type: s.Type}
	if len(s.Predicates) > 0 {
		out.Predicates = append([]Predicate(nil), s.Predicates...)
	}
	return out
}

// Len returns the number of segments.
func (a Address) Len() int {
	return len(a.segments)
}

// IsZero reports whether the address has no segments.
func (a Address) IsZero() bool {
	return len(a.segments) == 0
}

// Type returns the type name of the last segment, or "" for the empty address.
func (a Address) Type() string {
	if a.IsZero() {
		return ""
	}
	return a.segments[len(a.segments)-1].Type
}

// Segment returns a copy of the segment at index i. It panics when i is out of range.
func (a Address) Segment(i int) Segment {
	return a.segments[i].clone()
}

// Segments returns a copy of all segments.
func (a Address) Segments() []Segment {
	out := make([]Segment, len(a.segments))
	for i, s := range a.segments {
		out[i] = s.clone()
	}
	return out
}

// Last returns a copy of the last segment. It panics on the empty address.
func (a Address) Last() Segment {
	return a.Segment(len(a.segments) - 1)
}

// Parent returns the address without its last segment. The second result is
// false for the root (single segment) and the empty address.
func (a Address) Parent() (Address, bool) {
	if len(a.segments) < 2 {
		return Address{}, false
	}
	return Address{segments: a.segments[: len(a.segments)-1 : len(a.segments)-1]}, true
}

// Prefix returns the first n segments. It panics when n is out of range.
func (a Address) Prefix(n int) Address {
	return Address{segments: a.segments[:n:n]}
}

// Child returns a new address with a segment of type typ appended.
func (a Address) Child(typ string, preds ...Predicate) Address {
	segments := make([]Segment, len(a.segments), len(a.segments)+1)
	copy(segments, a.segments)
	seg := Segment{Type: typ}
	if len(preds) > 0 {
		seg.Predicates = append([]Predicate(nil), preds...)
	}
	return Address{segments: append(segments, seg)}
}

// WithFilter returns a copy of the address whose last segment filter is
// replaced by preds.
func (a Address) WithFilter(preds ...Predicate) Address {
	if a.IsZero() {
		return a
	}
	parent := Address{segments: a.segments[: len(a.segments)-1 : len(a.segments)-1]}
	return parent.Child(a.Type(), preds...)
}

// Attribute returns the value of the named attribute in the filter of segment i.
// The second result is false when the segment does not exist or has no such
// attribute.
func (a Address) Attribute(i int, name string) (string, bool) {
	if i < 0 || i >= len(a.segments) {
		return "", false
	}
	return a.segments[i].Get(name)
}

// Attr returns the value of the named attribute of the last segment.
func (a Address) Attr(name string) (string, bool) {
	return a.Attribute(len(a.segments)-1, name)
}

// Equal reports structural equality with other.
func (a Address) Equal(other Address) bool {
	return compare.Slices(a.segments, other.segments, Segment.Equal)
}

// String renders the address in its textual form. Parsing the result yields
// an address equal to a.
func (a Address) String() string {
	parts := make([]string, len(a.segments))
	for i, s := range a.segments {
		parts[i] = s.String()
	}
	return strings.Join(parts, "/")
}
