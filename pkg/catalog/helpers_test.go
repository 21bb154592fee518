package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/collation"
	"github.com/stretchr/testify/require"
)

var nameField = []catalog.Field{{Name: "Name"}}

func testRegistry() *catalog.Registry {
	return catalog.NewRegistry(catalog.Descriptor{
		Type:       "Server",
		Fields:     nameField,
		Attributes: []string{"Collation", "LCID"},
	}).MustRegister(
		catalog.Descriptor{
			Type:               "Database",
			Parents:            []string{"Server"},
			Fields:             nameField,
			Attributes:         []string{"Collation", "Owner"},
			CollationAttribute: "Collation",
		},
		catalog.Descriptor{
			Type:       "Table",
			Parents:    []string{"Database"},
			Fields:     []catalog.Field{{Name: "Schema"}, {Name: "Name"}},
			Attributes: []string{"RowCount"},
		},
		catalog.Descriptor{Type: "Column", Parents: []string{"Table"}, Fields: nameField},
		catalog.Descriptor{Type: "JobServer", Parents: []string{"Server"}, Singleton: true},
		catalog.Descriptor{
			Type:    "Job",
			Parents: []string{"JobServer"},
			Fields:  []catalog.Field{{Name: "Name"}, {Name: "CategoryID", Kind: catalog.Int, Optional: true}},
		},
	)
}

func descriptor(t *testing.T, reg *catalog.Registry, typ string) *catalog.Descriptor {
	t.Helper()

	d, ok := reg.Descriptor(typ)
	require.True(t, ok, "type %s not registered", typ)
	return d
}

// stubFetcher serves rows by request pattern and counts calls.
type stubFetcher struct {
	rows  map[string][]catalog.Row
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, req catalog.Request) ([]catalog.Row, error) {
	f.calls = append(f.calls, req.Pattern.String())
	return f.rows[req.Pattern.String()], nil
}

func urnRow(urn string, props ...any) catalog.Row {
	row := catalog.Row{"Urn": urn}
	for i := 0; i+1 < len(props); i += 2 {
		row[props[i].(string)] = props[i+1]
	}
	return row
}

func newTestRoot(fetcher catalog.Fetcher, props catalog.Row) *catalog.Object {
	env := &catalog.Env{
		Fetcher:    fetcher,
		Registry:   testRegistry(),
		Collations: collation.NewCache(collation.OrdinalIgnoreCase, nil, nil),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return catalog.NewRoot(env, "PROD", props)
}
