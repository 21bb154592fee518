// Package compare provides small generic helpers for structural equality and
// ordering.
//
// The helpers remove the boilerplate that otherwise shows up in every Equal or
// Compare method: length checks, element loops, order-insensitive matching and
// normalizing ordering results to -1, 0 or 1.
//
// # Equality
//
//	// Ordered element-wise equality
//	compare.Slices(a.segments, b.segments, func(x, y Segment) bool { return x.Equal(y) })
//
//	// Order-insensitive equality, used for ANDed filter predicates where
//	// [@Schema='dbo' and @Name='t'] and [@Name='t' and @Schema='dbo'] are the same
//	compare.SlicesUnordered(x.Predicates, y.Predicates, func(p, q Predicate) bool { return p == q })
//
// # Ordering
//
//	// Normalize any ordering result
//	compare.Sign(len(a) - len(b))
//
//	// First non-zero comparison wins
//	compare.Chain(
//		func() int { return compare.Ordered(a.Depth, b.Depth) },
//		func() int { return strings.Compare(a.Name, b.Name) },
//	)
package compare
