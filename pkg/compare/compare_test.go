package compare_test

import (
	"strings"
	"testing"

	. "github.com/pseudomuto/metatree/pkg/compare"
	"github.com/stretchr/testify/require"
)

func TestSlices(t *testing.T) {
	eq := func(a, b string) bool { return a == b }

	tests := []struct {
		name     string
		a, b     []string
		expected bool
	}{
		{name: "both nil", a: nil, b: nil, expected: true},
		{name: "nil and empty", a: nil, b: []string{}, expected: true},
		{name: "equal", a: []string{"Server", "Database"}, b: []string{"Server", "Database"}, expected: true},
		{name: "different order", a: []string{"Server", "Database"}, b: []string{"Database", "Server"}, expected: false},
		{name: "different length", a: []string{"Server"}, b: []string{"Server", "Database"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Slices(tt.a, tt.b, eq))
		})
	}
}

func TestSlicesUnordered(t *testing.T) {
	eq := func(a, b string) bool { return a == b }

	tests := []struct {
		name     string
		a, b     []string
		expected bool
	}{
		{name: "same order", a: []string{"Schema", "Name"}, b: []string{"Schema", "Name"}, expected: true},
		{name: "different order", a: []string{"Schema", "Name"}, b: []string{"Name", "Schema"}, expected: true},
		{name: "duplicates must pair up", a: []string{"Name", "Name"}, b: []string{"Name", "Schema"}, expected: false},
		{name: "different length", a: []string{"Name"}, b: []string{"Name", "Schema"}, expected: false},
		{name: "both empty", a: nil, b: nil, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, SlicesUnordered(tt.a, tt.b, eq))
		})
	}
}

func TestSign(t *testing.T) {
	require.Equal(t, -1, Sign(-42))
	require.Equal(t, 0, Sign(0))
	require.Equal(t, 1, Sign(7))
	require.Equal(t, -1, Sign(strings.Compare("T", "T2")))
}

func TestOrdered(t *testing.T) {
	require.Equal(t, -1, Ordered(1, 2))
	require.Equal(t, 0, Ordered("a", "a"))
	require.Equal(t, 1, Ordered(2.5, 1.0))
}

func TestChain(t *testing.T) {
	calls := 0
	counted := func(r int) func() int {
		return func() int {
			calls++
			return r
		}
	}

	require.Equal(t, 0, Chain())
	require.Equal(t, 1, Chain(counted(0), counted(5), counted(-1)))
	require.Equal(t, 2, calls, "comparisons after the first decision must not run")

	calls = 0
	require.Equal(t, 0, Chain(counted(0), counted(0)))
	require.Equal(t, 2, calls)
}
