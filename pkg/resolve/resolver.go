package resolve

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/collation"
	"github.com/pseudomuto/metatree/pkg/consts"
	"github.com/pseudomuto/metatree/pkg/urn"
)

type (
	// Resolver turns addresses into live entities of one root.
	//
	// The root is materialized once, on first use, and is safe to obtain from
	// several goroutines. Everything below the root is not: callers serialize
	// Resolve, ResolveMany and CompareAddresses calls on one Resolver.
	//
	// Example:
	//
	//	r := resolve.New(fetcher, model.SQLServer(), resolve.WithLogger(logger))
	//
	//	table, err := r.ResolveString(ctx, "Server/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']")
	//	if errors.Is(err, catalog.ErrMissingObject) {
	//		// no such table
	//	}
	Resolver struct {
		fetcher    catalog.Fetcher
		registry   *catalog.Registry
		parser     *urn.Parser
		opts       options
		id         uuid.UUID
		logger     *slog.Logger
		singletons map[string][]string

		mu    sync.Mutex
		root  atomic.Pointer[catalog.Object]
		cache *Cache
	}
)

// New creates a Resolver over fetcher for the object model in registry.
func New(fetcher catalog.Fetcher, registry *catalog.Registry, opts ...Option) *Resolver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.New()
	r := &Resolver{
		fetcher:    fetcher,
		registry:   registry,
		parser:     urn.NewParser(registry.Root()),
		opts:       o,
		id:         id,
		logger:     o.logger.With("root_id", id.String()),
		singletons: make(map[string][]string),
		cache:      NewCache(),
	}

	for _, typ := range registry.Types() {
		if d, _ := registry.Descriptor(typ); d.Singleton {
			r.singletons[typ] = d.Parents
		}
	}
	return r
}

// ID identifies this resolver's root in logs.
func (r *Resolver) ID() uuid.UUID {
	return r.id
}

// Registry returns the object model.
func (r *Resolver) Registry() *catalog.Registry {
	return r.registry
}

// Cache returns the resolution cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Parse parses address text rooted at the registry's root type.
func (r *Resolver) Parse(text string) (urn.Address, error) {
	return r.parser.Parse(text)
}

// Root returns the root entity, fetching it on first use.
func (r *Resolver) Root(ctx context.Context) (*catalog.Object, error) {
	if root := r.root.Load(); root != nil {
		return root, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if root := r.root.Load(); root != nil {
		return root, nil
	}

	desc := r.registry.RootDescriptor()
	pattern := urn.New(urn.Segment{Type: desc.Type})
	rows, err := r.fetcher.Fetch(ctx, catalog.Request{Pattern: pattern, Fields: desc.Properties()})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", pattern)
	}

	switch len(rows) {
	case 0:
		return nil, errors.Wrapf(catalog.ErrMissingObject, "data source has no %s", desc.Type)
	case 1:
	default:
		return nil, errors.Errorf("data source returned %d %s rows, expected one", len(rows), desc.Type)
	}

	row := rows[0]
	name := row.Text(consts.NameAttribute)
	if addr, err := row.Address(); err == nil {
		if v, ok := addr.Attribute(0, consts.NameAttribute); ok {
			name = v
		}
	}

	env := &catalog.Env{
		Fetcher:    r.fetcher,
		Registry:   r.registry,
		Collations: collation.NewCache(r.fallbackPolicy(), r.opts.lookup, r.logger),
		Factory:    r.opts.factory,
		Logger:     r.logger,
	}

	root := catalog.NewRoot(env, name, row)
	r.cache.PutObject(root.Address(), root, nil)
	r.root.Store(root)

	r.logger.Debug("root materialized", "name", name, "collation", root.Policy().Name())
	return root, nil
}

func (r *Resolver) fallbackPolicy() collation.Policy {
	if r.opts.defaultCollation == "" {
		return collation.OrdinalIgnoreCase
	}

	p, err := r.opts.lookup(r.opts.defaultCollation)
	if err != nil {
		r.logger.Warn("default collation unusable, comparing case-insensitively",
			"collation", r.opts.defaultCollation,
			"error", err)
		return collation.OrdinalIgnoreCase
	}
	return p
}

// ResolveString parses text and resolves it.
func (r *Resolver) ResolveString(ctx context.Context, text string) (*catalog.Object, error) {
	addr, err := r.Parse(text)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, addr)
}

// Resolve returns the entity addressed by addr, materializing its ancestors as
// needed. It fails with ErrInvalidRootAddress when addr names another root and
// with catalog.ErrMissingObject when any level does not exist.
func (r *Resolver) Resolve(ctx context.Context, addr urn.Address) (*catalog.Object, error) {
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
	return r.resolve(ctx, root, addr)
}

func (r *Resolver) resolve(ctx context.Context, root *catalog.Object, addr urn.Address) (*catalog.Object, error) {
	if addr.Len() == 1 {
		return root, r.checkRoot(root, addr)
	}

	if o, ok := r.cache.Object(addr); ok {
		r.logger.Debug("cache hit", "address", addr.String())
		return o, nil
	}

	parentAddr, _ := addr.Parent()
	parent, err := r.resolve(ctx, root, parentAddr)
	if err != nil {
		return nil, err
	}

	seg := addr.Last()
	if parents, ok := r.singletons[seg.Type]; ok && slices.Contains(parents, parent.Type()) {
		s, err := parent.Singleton(seg.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %s", addr)
		}
		r.cache.PutObject(addr, s, nil)
		return s, nil
	}

	desc, err := r.registry.Child(parent.Type(), seg.Type)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", addr)
	}

	coll, err := parent.Collection(seg.Type)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", addr)
	}

	key, err := catalog.KeyFromAddress(desc, addr)
	if err != nil {
		return nil, err
	}

	o, ok := coll.Lookup(key)
	if !ok {
		if row, cached := r.cache.Row(addr); cached {
			r.logger.Debug("materializing cached row", "address", addr.String())
			o, err = coll.Materialize(key, row)
		} else {
			o, err = coll.Get(ctx, key)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %s in %s", seg.Type, parent.Address())
		}
	}

	r.cache.PutObject(addr, o, coll)
	return o, nil
}

// lookupLoaded walks addr through entities already held in memory, without
// fetching.
func (r *Resolver) lookupLoaded(root *catalog.Object, addr urn.Address) (*catalog.Object, bool) {
	if addr.Len() == 1 {
		return root, r.checkRoot(root, addr) == nil
	}
	if o, ok := r.cache.Object(addr); ok {
		return o, true
	}

	parentAddr, _ := addr.Parent()
	parent, ok := r.lookupLoaded(root, parentAddr)
	if !ok {
		return nil, false
	}

	seg := addr.Last()
	desc, err := r.registry.Child(parent.Type(), seg.Type)
	if err != nil {
		return nil, false
	}
	if desc.Singleton {
		s, err := parent.Singleton(seg.Type)
		return s, err == nil
	}

	coll, err := parent.Collection(seg.Type)
	if err != nil {
		return nil, false
	}
	key, err := catalog.KeyFromAddress(desc, addr)
	if err != nil {
		return nil, false
	}
	return coll.Lookup(key)
}

// validate checks addr against the registry. An address starting anywhere but
// the root type fails with ErrInvalidRootAddress.
func (r *Resolver) validate(addr urn.Address) error {
	if !addr.IsZero() && addr.Segment(0).Type != r.registry.Root() {
		return errors.Wrapf(ErrInvalidRootAddress, "%s does not start at %s", addr, r.registry.Root())
	}
	return r.registry.Validate(addr)
}

// checkRoot verifies that the root segment of addr names this resolver's root.
func (r *Resolver) checkRoot(root *catalog.Object, addr urn.Address) error {
	seg := addr.Segment(0)
	if seg.Type != r.registry.Root() {
		return errors.Wrapf(ErrInvalidRootAddress, "%s does not start at %s", addr, r.registry.Root())
	}
	if name, ok := seg.Get(consts.NameAttribute); ok && !strings.EqualFold(name, root.Name()) {
		return errors.Wrapf(ErrInvalidRootAddress, "%s names %s, connected to %s", addr, name, root.Name())
	}
	return nil
}

// StringComparer returns the ordering policy for a collation name, memoized per
// root.
func (r *Resolver) StringComparer(ctx context.Context, collationName string) (collation.Policy, error) {
	root, err := r.Root(ctx)
	if err != nil {
		return nil, err
	}
	if collationName == "" {
		return root.Policy(), nil
	}
	return root.Env().Collations.Policy(collationName), nil
}
