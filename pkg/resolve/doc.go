// Package resolve maps textual addresses onto live catalog entities.
//
// A Resolver owns one root entity, materialized from its data source on first
// use. Resolve walks an address level by level, consulting the cache and the
// parent's collections before fetching. ResolveMany answers a pattern with a
// fetch per level and leaves the matched rows in the cache, so resolving any of
// the returned addresses afterwards costs no further fetches.
//
// CompareAddresses orders addresses the way the server orders names: the
// server's collation applies at the first level, and a database's own
// collation applies to everything inside it.
//
//	r := resolve.New(src, model.SQLServer())
//
//	addrs, err := r.ResolveMany(ctx, urn.MustParse("Server/Database/Table"), nil, nil)
//	if err != nil {
//		return err
//	}
//
//	slices.SortFunc(addrs, func(a, b urn.Address) int {
//		c, _ := r.CompareAddresses(ctx, a, b)
//		return c
//	})
package resolve
