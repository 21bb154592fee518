// Package catalog models the entities of a database server's metadata tree.
//
// Every entity type is described statically by a Descriptor (its parents, its
// ordered key fields and its attributes) held in a Registry. Entities are
// identified among their siblings by a Key, ordered by a Comparer that delegates
// string comparison to a collation.Policy, and held in a Collection: a sorted,
// keyed container owned by the parent entity.
//
// Objects are the live entities. They move through a simple lifecycle:
//
//	Pending --found in the data source--> Existing
//	Pending, Existing --dropped--> Dropped (terminal)
//
// Dropping an object cascades to every child collection and singleton it has
// materialized, so stale handles observe a consistent state.
//
// Entities are materialized from a Fetcher. Every row a Fetcher returns carries
// the entity's full address in its Urn field, from which the key is derived:
//
//	root := catalog.NewRoot(env, "PROD01", serverRow)
//	dbs, err := root.Collection("Database")
//	if err != nil {
//		return err
//	}
//
//	sales, err := dbs.Get(ctx, catalog.NewKey(dbDescriptor, "Sales"))
//	if errors.Is(err, catalog.ErrMissingObject) {
//		// no such database
//	}
package catalog
