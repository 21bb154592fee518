package resolve

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/collation"
	"github.com/pseudomuto/metatree/pkg/compare"
	"github.com/pseudomuto/metatree/pkg/consts"
	"github.com/pseudomuto/metatree/pkg/urn"
)

// CompareAddresses orders two addresses of this resolver's root, returning -1, 0
// or 1.
//
// Shorter addresses sort first. The root segments compare their names
// case-insensitively, a missing name standing for the resolver's root. Below the
// root, differing segment types compare ordinally; equal types compare the
// primary attribute, then below the first level the secondary one (absent
// before present), under the root's collation. When the first level below the root has its own collation
// (a database), that entity's collation is used for every deeper level.
func (r *Resolver) CompareAddresses(ctx context.Context, a, b urn.Address) (int, error) {
	if a.Len() != b.Len() {
		return compare.Ordered(a.Len(), b.Len()), nil
	}
	if a.IsZero() {
		return 0, nil
	}

	root, err := r.Root(ctx)
	if err != nil {
		return 0, err
	}

	if c, err := r.compareRoots(root, a, b); err != nil || c != 0 {
		return c, err
	}

	policy := root.Policy()
	for i := 1; i < a.Len(); i++ {
		sa, sb := a.Segment(i), b.Segment(i)
		if sa.Type != sb.Type {
			return compare.Ordered(sa.Type, sb.Type), nil
		}

		if c := r.compareSegments(policy, sa, sb, i > 1); c != 0 {
			return c, nil
		}

		if i == 1 && a.Len() > 2 {
			policy = r.levelPolicy(ctx, root, a.Prefix(2), policy)
		}
	}
	return 0, nil
}

func (r *Resolver) compareRoots(root *catalog.Object, a, b urn.Address) (int, error) {
	sa, sb := a.Segment(0), b.Segment(0)
	for _, s := range []urn.Segment{sa, sb} {
		if s.Type != r.registry.Root() {
			return 0, errors.Wrapf(ErrInvalidRootAddress, "%s is not %s", s.Type, r.registry.Root())
		}
	}

	na, ok := sa.Get(consts.NameAttribute)
	if !ok {
		na = root.Name()
	}
	nb, ok := sb.Get(consts.NameAttribute)
	if !ok {
		nb = root.Name()
	}
	return compare.Sign(collation.OrdinalIgnoreCase.Compare(na, nb)), nil
}

func (r *Resolver) compareSegments(policy collation.Policy, a, b urn.Segment, secondary bool) int {
	if !secondary {
		return compareAttribute(policy, a, b, r.opts.primary)
	}
	return compare.Chain(
		func() int { return compareAttribute(policy, a, b, r.opts.primary) },
		func() int { return compareAttribute(policy, a, b, r.opts.secondary) },
	)
}

// levelPolicy returns the collation of the entity at prefix when its type
// defines one, falling back to policy when it does not or cannot be resolved.
func (r *Resolver) levelPolicy(ctx context.Context, root *catalog.Object, prefix urn.Address, policy collation.Policy) collation.Policy {
	desc, ok := r.registry.Descriptor(prefix.Type())
	if !ok || desc.CollationAttribute == "" {
		return policy
	}

	o, err := r.resolve(ctx, root, prefix)
	if err != nil {
		r.logger.Debug("collation override not found, using root collation",
			"address", prefix.String(),
			"error", err)
		return policy
	}
	return o.Policy()
}

func compareAttribute(policy collation.Policy, a, b urn.Segment, attr string) int {
	if attr == "" {
		return 0
	}

	va, okA := a.Get(attr)
	vb, okB := b.Get(attr)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	default:
		return compare.Sign(policy.Compare(va, vb))
	}
}
