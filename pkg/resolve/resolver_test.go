package resolve_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/model"
	"github.com/pseudomuto/metatree/pkg/resolve"
	"github.com/pseudomuto/metatree/pkg/urn"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		address string
		typ     string
		objName string
		err     error
	}{
		{
			name:    "root",
			address: "Server",
			typ:     "Server",
			objName: "PROD01",
		},
		{
			name:    "root name ignores case",
			address: "Server[@Name='prod01']",
			typ:     "Server",
			objName: "PROD01",
		},
		{
			name:    "database",
			address: "Server/Database[@Name='Sales']",
			typ:     "Database",
			objName: "Sales",
		},
		{
			name:    "column",
			address: "Server/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']/Column[@Name='Total']",
			typ:     "Column",
			objName: "Total",
		},
		{
			name:    "singleton",
			address: "Server/JobServer",
			typ:     "JobServer",
		},
		{
			name:    "below singleton",
			address: "Server/JobServer/Job[@Name='nightly']",
			typ:     "Job",
			objName: "nightly",
		},
		{
			name:    "missing database",
			address: "Server/Database[@Name='Missing']",
			err:     catalog.ErrMissingObject,
		},
		{
			name:    "missing table",
			address: "Server/Database[@Name='HR']/Table[@Schema='dbo' and @Name='Orders']",
			err:     catalog.ErrMissingObject,
		},
		{
			name:    "other root",
			address: "Server[@Name='DEV']/Database[@Name='Sales']",
			err:     resolve.ErrInvalidRootAddress,
		},
		{
			name:    "incomplete key",
			address: "Server/Database[@Name='Sales']/Table[@Name='Orders']",
			err:     catalog.ErrMissingRequiredAttribute,
		},
		{
			name:    "unknown parentage",
			address: "Server/Table[@Schema='dbo' and @Name='Orders']",
			err:     catalog.ErrUnknownType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newResolver(t)

			o, err := r.ResolveString(context.Background(), tt.address)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.typ, o.Type())
			require.Equal(t, catalog.Existing, o.State())
			if tt.objName != "" {
				require.Equal(t, tt.objName, o.Name())
			}
		})
	}
}

func TestResolver_ResolveInvalidText(t *testing.T) {
	r, fetcher := newResolver(t)

	_, err := r.ResolveString(context.Background(), "Database[@Name='Sales']")
	require.ErrorIs(t, err, urn.ErrInvalidRoot)

	_, err = r.ResolveString(context.Background(), "Server/Database[@Name=")
	require.ErrorIs(t, err, urn.ErrInvalidAddress)

	_, err = r.Resolve(context.Background(), urn.Address{})
	require.ErrorIs(t, err, urn.ErrInvalidAddress)

	require.Zero(t, fetcher.Count())
}

func TestResolver_WrongRootType(t *testing.T) {
	r, fetcher := newResolver(t)
	ctx := context.Background()
	addr := urn.New(
		urn.Segment{Type: "Host"},
		urn.Segment{Type: "Database", Predicates: []urn.Predicate{{Attribute: "Name", Value: "Sales"}}},
	)
	other := urn.MustParse("Server/Database[@Name='Sales']")

	_, err := r.Resolve(ctx, addr)
	require.ErrorIs(t, err, resolve.ErrInvalidRootAddress)

	_, err = r.ResolveMany(ctx, addr, nil, nil)
	require.ErrorIs(t, err, resolve.ErrInvalidRootAddress)
	require.Zero(t, fetcher.Count())

	_, err = r.CompareAddresses(ctx, addr, other)
	require.ErrorIs(t, err, resolve.ErrInvalidRootAddress)
}

func TestResolver_ResolveLoadsProperties(t *testing.T) {
	r, _ := newResolver(t)

	db, err := r.ResolveString(context.Background(), "Server/Database[@Name='Sales']")
	require.NoError(t, err)

	owner, ok := db.Property("Owner")
	require.True(t, ok)
	require.Equal(t, "sa", owner)
	require.Equal(t, "Latin1_General_CS_AS", db.Policy().Name())
}

func TestResolver_ResolveUsesCache(t *testing.T) {
	r, fetcher := newResolver(t)
	ctx := context.Background()
	address := "Server/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']"

	first, err := r.ResolveString(ctx, address)
	require.NoError(t, err)
	fetches := fetcher.Count()

	second, err := r.ResolveString(ctx, address)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, fetches, fetcher.Count())

	// predicate order and the root name do not matter
	third, err := r.ResolveString(ctx, "Server[@Name='PROD01']/Database[@Name='Sales']/Table[@Name='Orders' and @Schema='dbo']")
	require.NoError(t, err)
	require.Same(t, first, third)
	require.Equal(t, fetches, fetcher.Count())
}

func TestResolver_ResolveAfterRefresh(t *testing.T) {
	r, fetcher := newResolver(t)
	ctx := context.Background()
	addr := urn.MustParse("Server/Database[@Name='Sales']")

	db, err := r.Resolve(ctx, addr)
	require.NoError(t, err)

	root, err := r.Root(ctx)
	require.NoError(t, err)
	coll, err := root.Collection("Database")
	require.NoError(t, err)
	coll.Refresh()

	_, cached := r.Cache().Object(addr)
	require.False(t, cached)

	fetches := fetcher.Count()
	again, err := r.Resolve(ctx, addr)
	require.NoError(t, err)
	require.Same(t, db, again)
	require.Equal(t, fetches+1, fetcher.Count())
}

func TestResolver_ResolveDropped(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()
	addr := urn.MustParse("Server/Database[@Name='HR']")

	db, err := r.Resolve(ctx, addr)
	require.NoError(t, err)
	require.NoError(t, db.Drop())

	_, cached := r.Cache().Object(addr)
	require.False(t, cached)

	again, err := r.Resolve(ctx, addr)
	require.NoError(t, err)
	require.NotSame(t, db, again)
	require.Equal(t, catalog.Existing, again.State())
	require.Equal(t, catalog.Dropped, db.State())

	addrs, err := r.ResolveMany(ctx, urn.MustParse("Server/Database[@Name='HR']"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Server[@Name='PROD01']/Database[@Name='HR']"}, strs(addrs))

	batched, err := r.Resolve(ctx, addrs[0])
	require.NoError(t, err)
	require.Same(t, again, batched)
}

func TestResolver_Root(t *testing.T) {
	r, fetcher := newResolver(t)

	var (
		wg    sync.WaitGroup
		roots = make([]*catalog.Object, 8)
	)
	for i := range roots {
		wg.Add(1)
		go func() {
			defer wg.Done()
			root, err := r.Root(context.Background())
			if err == nil {
				roots[i] = root
			}
		}()
	}
	wg.Wait()

	for _, root := range roots {
		require.NotNil(t, root)
		require.Same(t, roots[0], root)
	}
	require.Equal(t, 1, fetcher.Count())
	require.True(t, roots[0].IsRoot())
	require.Equal(t, "SQL_Latin1_General_CP1_CI_AS", roots[0].Policy().Name())
}

func TestResolver_RootErrors(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		empty := catalog.FetcherFunc(func(context.Context, catalog.Request) ([]catalog.Row, error) {
			return nil, nil
		})
		_, err := resolve.New(empty, model.SQLServer()).Root(context.Background())
		require.ErrorIs(t, err, catalog.ErrMissingObject)
	})

	t.Run("fetch failure", func(t *testing.T) {
		boom := errors.New("boom")
		failing := catalog.FetcherFunc(func(context.Context, catalog.Request) ([]catalog.Row, error) {
			return nil, boom
		})
		_, err := resolve.New(failing, model.SQLServer()).Root(context.Background())
		require.ErrorIs(t, err, boom)
	})

	t.Run("several rows", func(t *testing.T) {
		dup := catalog.FetcherFunc(func(context.Context, catalog.Request) ([]catalog.Row, error) {
			return []catalog.Row{
				{"Urn": "Server[@Name='A']", "Name": "A"},
				{"Urn": "Server[@Name='B']", "Name": "B"},
			}, nil
		})
		_, err := resolve.New(dup, model.SQLServer()).Root(context.Background())
		require.ErrorContains(t, err, "expected one")
	})
}

func TestResolver_StringComparer(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()

	p, err := r.StringComparer(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "SQL_Latin1_General_CP1_CI_AS", p.Name())
	require.Zero(t, p.Compare("orders", "ORDERS"))

	cs, err := r.StringComparer(ctx, "Latin1_General_CS_AS")
	require.NoError(t, err)
	require.NotZero(t, cs.Compare("orders", "ORDERS"))

	again, err := r.StringComparer(ctx, "latin1_general_cs_as")
	require.NoError(t, err)
	require.Same(t, cs, again)

	unknown, err := r.StringComparer(ctx, "Klingon_CI_AS")
	require.NoError(t, err)
	require.Equal(t, p.Name(), unknown.Name())
}

func TestResolver_DefaultCollation(t *testing.T) {
	r, _ := newResolver(t, resolve.WithDefaultCollation(""))

	p, err := r.StringComparer(context.Background(), "Klingon_CI_AS")
	require.NoError(t, err)
	require.Equal(t, "OrdinalIgnoreCase", p.Name())
}

func TestResolver_WithFactory(t *testing.T) {
	var created []string
	factory := catalog.FactoryFunc(func(typ string, key catalog.Key, parent *catalog.Object) (*catalog.Object, error) {
		created = append(created, typ)
		return catalog.NewObject(typ, key, parent)
	})

	r, _ := newResolver(t, resolve.WithFactory(factory))
	_, err := r.ResolveString(context.Background(), "Server/Database[@Name='HR']/Table[@Schema='dbo' and @Name='Employees']")
	require.NoError(t, err)
	require.Contains(t, created, "Database")
	require.Contains(t, created, "Table")
}

func TestResolver_ResolveOtherRootAfterCaching(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()

	_, err := r.ResolveString(ctx, "Server/Database[@Name='Sales']")
	require.NoError(t, err)

	_, err = r.ResolveString(ctx, "Server[@Name='DEV']/Database[@Name='Sales']")
	require.ErrorIs(t, err, resolve.ErrInvalidRootAddress)
}
