package urn_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/urn"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		segments []urn.Segment
	}{
		{
			name:     "root only",
			input:    "Server",
			segments: []urn.Segment{{Type: "Server"}},
		},
		{
			name:  "root with name",
			input: "Server[@Name='PROD01']",
			segments: []urn.Segment{
				{Type: "Server", Predicates: []urn.Predicate{{Attribute: "Name", Value: "PROD01"}}},
			},
		},
		{
			name:  "multiple predicates",
			input: "Server/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']",
			segments: []urn.Segment{
				{Type: "Server"},
				{Type: "Database", Predicates: []urn.Predicate{{Attribute: "Name", Value: "Sales"}}},
				{Type: "Table", Predicates: []urn.Predicate{
					{Attribute: "Schema", Value: "dbo"},
					{Attribute: "Name", Value: "Orders"},
				}},
			},
		},
		{
			name:  "escaped quotes",
			input: "Server/Login[@Name='O''Brien']",
			segments: []urn.Segment{
				{Type: "Server"},
				{Type: "Login", Predicates: []urn.Predicate{{Attribute: "Name", Value: "O'Brien"}}},
			},
		},
		{
			name:  "empty string value",
			input: "Server/Database[@Name='']",
			segments: []urn.Segment{
				{Type: "Server"},
				{Type: "Database", Predicates: []urn.Predicate{{Attribute: "Name", Value: ""}}},
			},
		},
		{
			name:  "numeric value and whitespace",
			input: "Server / JobServer / Job[ @Name = 'nightly' and @CategoryID = 3 ]",
			segments: []urn.Segment{
				{Type: "Server"},
				{Type: "JobServer"},
				{Type: "Job", Predicates: []urn.Predicate{
					{Attribute: "Name", Value: "nightly"},
					{Attribute: "CategoryID", Value: "3"},
				}},
			},
		},
		{
			name:  "slash inside a literal",
			input: "Server/Database[@Name='a/b[c]']",
			segments: []urn.Segment{
				{Type: "Server"},
				{Type: "Database", Predicates: []urn.Predicate{{Attribute: "Name", Value: "a/b[c]"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := urn.Parse(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.segments, addr.Segments())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
	}{
		{name: "empty", input: "", expected: urn.ErrInvalidAddress},
		{name: "blank", input: "   ", expected: urn.ErrInvalidAddress},
		{name: "trailing slash", input: "Server/", expected: urn.ErrInvalidAddress},
		{name: "unterminated literal", input: "Server/Database[@Name='Sales]", expected: urn.ErrInvalidAddress},
		{name: "missing at sign", input: "Server/Database[Name='Sales']", expected: urn.ErrInvalidAddress},
		{name: "unclosed filter", input: "Server/Database[@Name='Sales'", expected: urn.ErrInvalidAddress},
		{name: "or is not supported", input: "Server/Database[@Name='a' or @Name='b']", expected: urn.ErrInvalidAddress},
		{name: "duplicate attribute", input: "Server/Database[@Name='a' and @Name='b']", expected: urn.ErrInvalidAddress},
		{name: "wrong root", input: "Database[@Name='Sales']", expected: urn.ErrInvalidRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := urn.Parse(tt.input)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.expected), "unexpected error: %v", err)
		})
	}
}

func TestParserCustomRoot(t *testing.T) {
	p := urn.NewParser("Cluster")

	addr, err := p.Parse("Cluster/Node[@Name='n1']")
	require.NoError(t, err)
	require.Equal(t, 2, addr.Len())

	_, err = p.Parse("Server/Node[@Name='n1']")
	require.True(t, errors.Is(err, urn.ErrInvalidRoot))

	// An empty root accepts any first segment
	_, err = urn.NewParser("").Parse("Anything/Else")
	require.NoError(t, err)
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"Server",
		"Server[@Name='PROD01']",
		"Server/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']/Column[@Name='Id']",
		"Server/Login[@Name='O''Brien''s']",
		"Server/JobServer/Job[@Name='nightly' and @CategoryID='3']",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			addr := urn.MustParse(input)
			require.Equal(t, input, addr.String())

			again, err := urn.Parse(addr.String())
			require.NoError(t, err)
			require.True(t, addr.Equal(again))
		})
	}
}
