package catalog_test

import (
	"testing"

	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/collation"
	"github.com/stretchr/testify/require"
)

func TestKeyComparer(t *testing.T) {
	reg := testRegistry()
	table := descriptor(t, reg, "Table")
	job := descriptor(t, reg, "Job")

	ci := catalog.KeyComparer(collation.OrdinalIgnoreCase)
	cs := catalog.KeyComparer(collation.Ordinal)

	tests := []struct {
		name     string
		cmp      catalog.Comparer[catalog.Key]
		a, b     catalog.Key
		expected int
	}{
		{name: "equal ignoring case", cmp: ci, a: catalog.NewKey(table, "dbo", "orders"), b: catalog.NewKey(table, "DBO", "ORDERS"), expected: 0},
		{name: "case sensitive", cmp: cs, a: catalog.NewKey(table, "dbo", "Orders"), b: catalog.NewKey(table, "dbo", "orders"), expected: -1},
		{name: "first field wins", cmp: ci, a: catalog.NewKey(table, "a", "z"), b: catalog.NewKey(table, "b", "a"), expected: -1},
		{name: "second field breaks tie", cmp: ci, a: catalog.NewKey(table, "dbo", "T2"), b: catalog.NewKey(table, "dbo", "T"), expected: 1},
		{name: "integers numerically", cmp: ci, a: catalog.NewKey(job, "j", "10"), b: catalog.NewKey(job, "j", "9"), expected: 1},
		{name: "absent optional first", cmp: ci, a: catalog.NewKey(job, "j"), b: catalog.NewKey(job, "j", "0"), expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.cmp(tt.a, tt.b))
			require.Equal(t, -tt.expected, tt.cmp(tt.b, tt.a))
		})
	}
}

func TestKeyComparerTotalOrder(t *testing.T) {
	table := descriptor(t, testRegistry(), "Table")
	policy, err := collation.Decode("Latin1_General_CI_AS")
	require.NoError(t, err)

	names := []string{"a", "A", "b", "B", "ä", "orders", "Orders", "order", "ZZ", "z", "10", "9", "_x"}
	var keys []catalog.Key
	for _, schema := range []string{"dbo", "Sales", "sales"} {
		for _, n := range names {
			keys = append(keys, catalog.NewKey(table, schema, n))
		}
	}

	// Two comparers over equal policies must agree.
	cmpA := catalog.KeyComparer(policy)
	cmpB := catalog.KeyComparer(policy)

	for _, a := range keys {
		for _, b := range keys {
			ab := cmpA(a, b)
			require.Equal(t, -ab, cmpA(b, a), "antisymmetry for %s, %s", a, b)
			require.Equal(t, ab, cmpB(a, b))

			if ab > 0 {
				continue
			}
			for _, c := range keys {
				if cmpA(b, c) <= 0 {
					require.LessOrEqual(t, cmpA(a, c), 0, "transitivity for %s <= %s <= %s", a, b, c)
				}
			}
		}
	}
}

func TestKeyComparerNullPanics(t *testing.T) {
	table := descriptor(t, testRegistry(), "Table")
	cmp := catalog.KeyComparer(collation.Ordinal)

	require.Panics(t, func() { cmp(catalog.NewKey(table, "dbo"), catalog.NewKey(table, "dbo", "T")) })
	require.Panics(t, func() { cmp(catalog.NewKey(table, "dbo", "T"), catalog.Key{}) })
}
