package catalog_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/stretchr/testify/require"
)

func treeFetcher() *stubFetcher {
	return &stubFetcher{rows: map[string][]catalog.Row{
		"Server[@Name='PROD']/Database": {
			urnRow("Server[@Name='PROD']/Database[@Name='Sales']", "Collation", "Latin1_General_CS_AS"),
			urnRow("Server[@Name='PROD']/Database[@Name='HR']"),
		},
		"Server[@Name='PROD']/Database[@Name='Sales']/Table": {
			urnRow("Server[@Name='PROD']/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']", "RowCount", 10),
			urnRow("Server[@Name='PROD']/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='orders']", "RowCount", 3),
		},
		"Server[@Name='PROD']/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']/Column": {
			urnRow("Server[@Name='PROD']/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']/Column[@Name='Id']"),
			urnRow("Server[@Name='PROD']/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']/Column[@Name='Total']"),
		},
	}}
}

func items(t *testing.T, parent *catalog.Object, typ string) []*catalog.Object {
	t.Helper()

	c, err := parent.Collection(typ)
	require.NoError(t, err)
	out, err := c.Items(context.Background())
	require.NoError(t, err)
	return out
}

func named(t *testing.T, objs []*catalog.Object, name string) *catalog.Object {
	t.Helper()

	for _, o := range objs {
		if o.Name() == name {
			return o
		}
	}
	require.FailNow(t, "no object named "+name)
	return nil
}

func TestObjectCascadeDrop(t *testing.T) {
	root := newTestRoot(treeFetcher(), nil)

	dbs := items(t, root, "Database")
	require.Len(t, dbs, 2)
	sales := dbs[1]
	require.Equal(t, "Sales", sales.Name())

	tables := items(t, sales, "Table")
	require.Len(t, tables, 2)
	orders := named(t, tables, "Orders")

	columns := items(t, orders, "Column")
	require.Len(t, columns, 2)

	all := append(append(append([]*catalog.Object{}, dbs...), tables...), columns...)
	for _, o := range all {
		require.Equal(t, catalog.Existing, o.State(), o.Address().String())
	}

	dbCollection, err := root.Collection("Database")
	require.NoError(t, err)
	dbCollection.MarkAllDropped()

	for _, o := range all {
		require.Equal(t, catalog.Dropped, o.State(), o.Address().String())
	}
	require.Equal(t, catalog.Existing, root.State())
}

func TestObjectCollationInheritance(t *testing.T) {
	root := newTestRoot(treeFetcher(), catalog.Row{"Collation": "SQL_Latin1_General_CP1_CI_AS"})
	require.Equal(t, "SQL_Latin1_General_CP1_CI_AS", root.Policy().Name())

	dbs := items(t, root, "Database")
	hr, sales := dbs[0], dbs[1]

	require.Equal(t, "Latin1_General_CS_AS", sales.Policy().Name())
	require.Equal(t, "SQL_Latin1_General_CP1_CI_AS", hr.Policy().Name())

	// Orders and orders coexist under the case sensitive database collation.
	tables := items(t, sales, "Table")
	require.Len(t, tables, 2)

	require.Equal(t, "Latin1_General_CS_AS", tables[0].Policy().Name())
}

func TestObjectRootCollationFromLCID(t *testing.T) {
	root := newTestRoot(treeFetcher(), catalog.Row{"LCID": 1036})
	require.Equal(t, "French_CI_AS", root.Policy().Name())

	root = newTestRoot(treeFetcher(), nil)
	require.Equal(t, "OrdinalIgnoreCase", root.Policy().Name())
}

func TestObjectAddressAndProperties(t *testing.T) {
	root := newTestRoot(treeFetcher(), catalog.Row{"Name": "PROD", "Version": "16.0"})
	require.Equal(t, "Server[@Name='PROD']", root.Address().String())
	require.True(t, root.IsRoot())

	sales := items(t, root, "Database")[1]
	orders := named(t, items(t, sales, "Table"), "Orders")

	require.Equal(t, "Server[@Name='PROD']/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']", orders.Address().String())
	require.Same(t, sales, orders.Parent())

	v, ok := orders.Property("RowCount")
	require.True(t, ok)
	require.Equal(t, 10, v)

	v, ok = orders.Property("Schema")
	require.True(t, ok)
	require.Equal(t, "dbo", v)

	props := orders.Properties()
	require.Equal(t, catalog.Row{"Schema": "dbo", "Name": "Orders", "RowCount": 10}, props)

	require.NoError(t, orders.SetProperty("RowCount", 11))
	require.Error(t, orders.SetProperty("Name", "x"))

	_, err := orders.Collection("Database")
	require.True(t, errors.Is(err, catalog.ErrUnknownType))
}

func TestObjectSingleton(t *testing.T) {
	root := newTestRoot(treeFetcher(), nil)

	js, err := root.Singleton("JobServer")
	require.NoError(t, err)
	require.Equal(t, "Server[@Name='PROD']/JobServer", js.Address().String())
	require.Equal(t, catalog.Existing, js.State(), "singletons follow their parent")

	again, err := root.Singleton("JobServer")
	require.NoError(t, err)
	require.Same(t, js, again)

	_, err = root.Singleton("Database")
	require.True(t, errors.Is(err, catalog.ErrUnknownType))

	_, err = root.Collection("JobServer")
	require.True(t, errors.Is(err, catalog.ErrUnknownType))

	jobs, err := js.Collection("Job")
	require.NoError(t, err)
	job, err := jobs.Upsert(catalog.NewKey(jobs.Codec().(catalog.DescriptorCodec).Descriptor, "nightly"))
	require.NoError(t, err)
	require.Equal(t, catalog.Pending, job.State())
	require.Equal(t, "Server[@Name='PROD']/JobServer/Job[@Name='nightly']", job.Address().String())
}

func TestObjectDrop(t *testing.T) {
	root := newTestRoot(treeFetcher(), nil)
	dbs := items(t, root, "Database")
	sales := dbs[1]
	orders := named(t, items(t, sales, "Table"), "Orders")

	require.True(t, errors.Is(root.Drop(), catalog.ErrInvalidState))

	require.NoError(t, sales.Drop())
	require.Equal(t, catalog.Dropped, sales.State())
	require.Equal(t, catalog.Dropped, orders.State())

	coll, err := root.Collection("Database")
	require.NoError(t, err)
	_, found := coll.Lookup(sales.Key())
	require.False(t, found)
	require.Len(t, items(t, root, "Database"), len(dbs)-1)
	require.True(t, errors.Is(sales.Drop(), catalog.ErrInvalidState))

	sales.MarkExisting(catalog.Row{"Owner": "sa"})
	require.Equal(t, catalog.Dropped, sales.State(), "dropped is terminal")
}

func TestPendingParentDoesNotFetch(t *testing.T) {
	fetcher := treeFetcher()
	root := newTestRoot(fetcher, nil)

	dbs, err := root.Collection("Database")
	require.NoError(t, err)
	scratch, err := dbs.Upsert(catalog.NewKey(dbs.Codec().(catalog.DescriptorCodec).Descriptor, "Scratch"))
	require.NoError(t, err)

	require.Empty(t, items(t, scratch, "Table"))
	require.Empty(t, fetcher.calls)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "Pending", catalog.Pending.String())
	require.Equal(t, "Existing", catalog.Existing.String())
	require.Equal(t, "Dropped", catalog.Dropped.String())
	require.Equal(t, "State(9)", catalog.State(9).String())
}
