package catalog

import (
	"strconv"

	"github.com/pseudomuto/metatree/pkg/collation"
	"github.com/pseudomuto/metatree/pkg/compare"
)

// Comparer is a total order over keys of type K returning -1, 0 or 1.
type Comparer[K any] func(a, b K) int

// KeyComparer returns a Comparer that orders keys field by field in declared
// order. String fields are compared with policy, integer fields numerically, and
// an empty optional field sorts before any value. The first non-zero field
// comparison wins.
//
// Comparing a null key is a programming error and panics.
func KeyComparer(policy collation.Policy) Comparer[Key] {
	return func(a, b Key) int {
		if a.IsNull() || b.IsNull() {
			panic("catalog: comparing null key " + a.String() + " with " + b.String())
		}
		if a.typ != b.typ {
			return compare.Ordered(a.typ, b.typ)
		}

		for i, f := range a.fields {
			if c := compareField(policy, f, a.values[i], b.values[i]); c != 0 {
				return c
			}
		}
		return 0
	}
}

func compareField(policy collation.Policy, f Field, a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}

	if f.Kind == Int {
		x, errA := strconv.Atoi(a)
		y, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			return compare.Ordered(x, y)
		}
	}
	return compare.Sign(policy.Compare(a, b))
}
