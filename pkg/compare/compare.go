package compare

import "cmp"

// Slices compares two slices for equality using an equality function for elements.
// Returns true if both slices have the same length and all corresponding elements are equal.
//
// Example:
//
//	func (a Address) Equal(other Address) bool {
//	    return compare.Slices(a.segments, other.segments,
//	        func(x, y Segment) bool { return x.Equal(y) })
//	}
func Slices[T any](a, b []T, equalFunc func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalFunc(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SlicesUnordered compares two slices for equality regardless of order.
// Returns true if both slices contain the same elements (by the equality function).
//
// Example:
//
//	func (s Segment) Equal(other Segment) bool {
//	    return s.Type == other.Type &&
//	        compare.SlicesUnordered(s.Predicates, other.Predicates,
//	            func(a, b Predicate) bool { return a == b })
//	}
func SlicesUnordered[T any](a, b []T, equalFunc func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}

	// Track which elements in b have been matched
	matched := make([]bool, len(b))

	for _, aElem := range a {
		found := false
		for j, bElem := range b {
			if !matched[j] && equalFunc(aElem, bElem) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Sign normalizes the result of an ordering function to -1, 0 or 1.
//
// Example:
//
//	compare.Sign(strings.Compare("a", "b")) // -1
//	compare.Sign(len(x) - len(y))           // -1, 0 or 1
func Sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Ordered compares two ordered values, returning -1, 0 or 1.
func Ordered[T cmp.Ordered](a, b T) int {
	return cmp.Compare(a, b)
}

// Chain evaluates the comparisons in order and returns the first non-zero
// result, or 0 when every comparison reports equality. Later comparisons are
// not evaluated once a decision has been made.
//
// Example:
//
//	return compare.Chain(
//	    func() int { return policy.Compare(a.Schema, b.Schema) },
//	    func() int { return policy.Compare(a.Name, b.Name) },
//	)
func Chain(comparisons ...func() int) int {
	for _, c := range comparisons {
		if r := c(); r != 0 {
			return Sign(r)
		}
	}
	return 0
}
