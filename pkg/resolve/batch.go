package resolve

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/urn"
)

// ResolveMany returns the addresses of every entity matched by the pattern
// addr, fetching the requested fields ordered by orderBy.
//
// Instead of resolving each match level by level, the ancestors are primed top
// down with one fetch per intermediate depth, using each type's priming fields.
// Singleton levels need no fetch. The leaf rows are cached unmaterialized, so a
// later Resolve of any returned address materializes it without a fetch.
//
// Any failure while priming is returned as a *QueryError (ErrInvalidAddressQuery).
// A level whose filter names a complete key but matches nothing fails with
// catalog.ErrMissingObject; a partial filter matching nothing yields no results.
//
// Example:
//
//	addrs, err := r.ResolveMany(ctx,
//		urn.MustParse("Server/Database/Table[@Schema='dbo']/Column"),
//		[]string{"DataType"},
//		[]catalog.OrderBy{{Field: "Name"}},
//	)
func (r *Resolver) ResolveMany(ctx context.Context, addr urn.Address, fields []string, orderBy []catalog.OrderBy) ([]urn.Address, error) {
	if err := r.validate(addr); err != nil {
		return nil, err
	}

	root, err := r.Root(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.checkRoot(root, addr); err != nil {
		return nil, err
	}
	if addr.Len() == 1 {
		return []urn.Address{root.Address()}, nil
	}

	parents := []*catalog.Object{root}
	for depth := 1; depth < addr.Len()-1; depth++ {
		parents, err = r.prime(ctx, root, parents, addr.Prefix(depth+1))
		if err != nil {
			return nil, &QueryError{Depth: depth, Pattern: addr.Prefix(depth + 1), Err: err}
		}
		if len(parents) == 0 {
			r.logger.Debug("no matches", "pattern", addr.String(), "depth", depth)
			return nil, nil
		}
	}

	depth := addr.Len() - 1
	desc, _ := r.registry.Descriptor(addr.Type())
	if desc.Singleton {
		out := make([]urn.Address, 0, len(parents))
		for _, p := range parents {
			s, err := p.Singleton(desc.Type)
			if err != nil {
				return nil, &QueryError{Depth: depth, Pattern: addr, Err: err}
			}
			r.cache.PutObject(s.Address(), s, nil)
			out = append(out, s.Address())
		}
		return out, nil
	}

	rows, err := r.fetcher.Fetch(ctx, catalog.Request{Pattern: addr, Fields: fields, OrderBy: orderBy})
	if err != nil {
		return nil, &QueryError{Depth: depth, Pattern: addr, Err: err}
	}

	out := make([]urn.Address, 0, len(rows))
	for _, row := range rows {
		a, err := row.Address()
		if err != nil {
			return nil, &QueryError{Depth: depth, Pattern: addr, Err: err}
		}

		parentAddr, _ := a.Parent()
		if parent, ok := r.lookupLoaded(root, parentAddr); ok {
			coll, err := parent.Collection(desc.Type)
			if err != nil {
				return nil, &QueryError{Depth: depth, Pattern: addr, Err: err}
			}
			r.cache.PutRow(a, row, coll)
		}
		out = append(out, a)
	}

	r.logger.Debug("batch resolved", "pattern", addr.String(), "results", len(out))
	return out, nil
}

// prime materializes every entity matched by pattern under the already primed
// parents and returns them.
func (r *Resolver) prime(ctx context.Context, root *catalog.Object, parents []*catalog.Object, pattern urn.Address) ([]*catalog.Object, error) {
	desc, _ := r.registry.Descriptor(pattern.Type())
	r.logger.Debug("priming", "pattern", pattern.String(), "depth", pattern.Len()-1)

	if desc.Singleton {
		out := make([]*catalog.Object, 0, len(parents))
		for _, p := range parents {
			s, err := p.Singleton(desc.Type)
			if err != nil {
				return nil, err
			}
			r.cache.PutObject(s.Address(), s, nil)
			out = append(out, s)
		}
		return out, nil
	}

	rows, err := r.fetcher.Fetch(ctx, catalog.Request{Pattern: pattern, Fields: desc.PrimingFields()})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 && pattern.Last().HasFilter() {
		if _, err := catalog.KeyFromAddress(desc, pattern); err == nil {
			return nil, errors.Wrapf(catalog.ErrMissingObject, "%s", pattern)
		}
	}

	out := make([]*catalog.Object, 0, len(rows))
	for _, row := range rows {
		a, err := row.Address()
		if err != nil {
			return nil, err
		}

		parentAddr, _ := a.Parent()
		parent, ok := r.lookupLoaded(root, parentAddr)
		if !ok {
			return nil, errors.Wrapf(catalog.ErrMissingObject, "parent of %s was not primed", a)
		}

		coll, err := parent.Collection(desc.Type)
		if err != nil {
			return nil, err
		}
		key, err := catalog.KeyFromAddress(desc, a)
		if err != nil {
			return nil, err
		}
		o, err := coll.Materialize(key, row)
		if err != nil {
			return nil, err
		}

		r.cache.PutObject(a, o, coll)
		out = append(out, o)
	}
	return out, nil
}
