package urn_test

import (
	"testing"

	"github.com/pseudomuto/metatree/pkg/urn"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no quotes", input: "Sales", expected: "Sales"},
		{name: "single quote", input: "O'Brien", expected: "O''Brien"},
		{name: "two quotes", input: "''", expected: "''''"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, urn.Escape(tt.input))
			require.Equal(t, tt.input, urn.Unescape(urn.Escape(tt.input)))
		})
	}
}

func TestUnescapeLoneQuote(t *testing.T) {
	require.Equal(t, "it's", urn.Unescape("it's"))
	require.Equal(t, "a'b'c", urn.Unescape("a''b'c"))
}

func TestFormatPredicates(t *testing.T) {
	preds := []urn.Predicate{
		{Attribute: "Schema", Value: "dbo"},
		{Attribute: "Name", Value: "O'Brien"},
	}

	require.Equal(t, "@Schema='dbo' and @Name='O''Brien'", urn.FormatPredicates(preds))
	require.Equal(t, "", urn.FormatPredicates(nil))
}
