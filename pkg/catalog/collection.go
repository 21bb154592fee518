package catalog

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/urn"
)

type (
	// Member is the lifecycle surface a collection needs from the entities it holds.
	Member interface {
		State() State

		// MarkExisting records that the entity exists in the data source and
		// merges the fetched row into its properties.
		MarkExisting(row Row)

		// MarkDropped moves the entity, and everything below it, to Dropped.
		MarkDropped()
	}

	// Loader fetches the rows backing a collection.
	Loader[K any] interface {
		// LoadAll returns a row per entity of the collection.
		LoadAll(ctx context.Context) ([]Row, error)

		// LoadKey returns the rows of the entity with the given key, if any.
		LoadKey(ctx context.Context, key K) ([]Row, error)
	}

	// CollectionOptions configures a Collection.
	CollectionOptions[K any, V Member] struct {
		Codec    KeyCodec[K]
		Comparer Comparer[K]

		// Loader is optional; collections without one never fetch.
		Loader Loader[K]

		// New instantiates an entity for a key. row is nil for pending entities.
		New func(key K, state State, row Row) (V, error)
	}

	// Collection is a sorted, keyed container of the entities of one type under
	// one parent. Keys are unique under the collection's Comparer and iteration
	// follows Comparer order. Lookups are binary searches.
	//
	// A collection populates itself from its Loader on first enumeration and
	// fetches single keys on demand before that. Refresh forgets the populated
	// state; entities that reappear on the next population keep their identity,
	// entities that do not are marked dropped.
	//
	// Collections are not safe for concurrent use.
	Collection[K any, V Member] struct {
		codec      KeyCodec[K]
		cmp        Comparer[K]
		loader     Loader[K]
		newMember  func(K, State, Row) (V, error)
		entries    []entry[K, V]
		stale      []entry[K, V]
		populated  bool
		generation uint64
	}

	entry[K any, V Member] struct {
		key   K
		value V
	}
)

// NewCollection creates an empty collection.
func NewCollection[K any, V Member](opts CollectionOptions[K, V]) *Collection[K, V] {
	return &Collection[K, V]{
		codec:     opts.Codec,
		cmp:       opts.Comparer,
		loader:    opts.Loader,
		newMember: opts.New,
	}
}

// Codec returns the collection's key codec.
func (c *Collection[K, V]) Codec() KeyCodec[K] {
	return c.codec
}

// Comparer returns the collection's key order.
func (c *Collection[K, V]) Comparer() Comparer[K] {
	return c.cmp
}

// Generation changes whenever entries may have been invalidated (Refresh and
// Remove). Caches holding entities of this collection compare generations to
// detect staleness.
func (c *Collection[K, V]) Generation() uint64 {
	return c.generation
}

// Populated reports whether the collection has been fully loaded since
// construction or the last Refresh.
func (c *Collection[K, V]) Populated() bool {
	return c.populated
}

// Lookup returns the entity for key without fetching. Null keys are never found.
func (c *Collection[K, V]) Lookup(key K) (V, bool) {
	var zero V
	if c.codec.IsNull(key) {
		return zero, false
	}

	i, found := c.search(c.entries, key)
	if !found {
		return zero, false
	}
	return c.entries[i].value, true
}

// Get returns the entity for key. When the collection has not been populated
// the key is fetched from the Loader first.
func (c *Collection[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	if err := c.codec.Validate(key); err != nil {
		return zero, err
	}

	if v, ok := c.Lookup(key); ok {
		return v, nil
	}

	if !c.populated && c.loader != nil {
		rows, err := c.loader.LoadKey(ctx, key)
		if err != nil {
			return zero, errors.Wrapf(err, "loading [%s]", c.codec.Filter(key))
		}
		if err := c.materializeRows(rows); err != nil {
			return zero, err
		}
		if v, ok := c.Lookup(key); ok {
			return v, nil
		}
	}

	return zero, errors.Wrapf(ErrMissingObject, "[%s]", c.codec.Filter(key))
}

// Len returns the number of entities, populating the collection first.
func (c *Collection[K, V]) Len(ctx context.Context) (int, error) {
	if err := c.ensurePopulated(ctx); err != nil {
		return 0, err
	}
	return len(c.entries), nil
}

// Items returns the entities in Comparer order, populating the collection first.
func (c *Collection[K, V]) Items(ctx context.Context) ([]V, error) {
	if err := c.ensurePopulated(ctx); err != nil {
		return nil, err
	}
	return c.Loaded(), nil
}

// Loaded returns the entities currently held, in Comparer order, without
// fetching.
func (c *Collection[K, V]) Loaded() []V {
	out := make([]V, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.value
	}
	return out
}

// Keys returns copies of the keys currently held, in Comparer order.
func (c *Collection[K, V]) Keys() []K {
	out := make([]K, len(c.entries))
	for i, e := range c.entries {
		out[i] = c.codec.Clone(e.key)
	}
	return out
}

// Insert adds value under key. It fails with ErrDuplicateKey when a key that
// compares equal is already held. The key is cloned.
func (c *Collection[K, V]) Insert(key K, value V) error {
	if err := c.codec.Validate(key); err != nil {
		return err
	}

	i, found := c.search(c.entries, key)
	if found {
		return errors.Wrapf(ErrDuplicateKey, "[%s] conflicts with [%s]", c.codec.Filter(key), c.codec.Filter(c.entries[i].key))
	}

	c.entries = slices.Insert(c.entries, i, entry[K, V]{key: c.codec.Clone(key), value: value})
	return nil
}

// UpsertFromAddress returns the entity addressed by the last segment of addr,
// creating a pending one when the collection holds none.
func (c *Collection[K, V]) UpsertFromAddress(addr urn.Address) (V, error) {
	key, err := c.codec.FromAddress(addr)
	if err != nil {
		var zero V
		return zero, err
	}
	return c.Upsert(key)
}

// Upsert returns the entity for key, creating a pending one when absent.
func (c *Collection[K, V]) Upsert(key K) (V, error) {
	var zero V
	if err := c.codec.Validate(key); err != nil {
		return zero, err
	}
	if v, ok := c.Lookup(key); ok {
		return v, nil
	}

	v, err := c.newMember(c.codec.Clone(key), Pending, nil)
	if err != nil {
		return zero, err
	}
	if err := c.Insert(key, v); err != nil {
		return zero, err
	}
	return v, nil
}

// Materialize records that the entity with key exists, with row as its fetched
// properties. The held entity is updated in place; an entity held before the
// last Refresh is reused; otherwise a new Existing entity is created.
func (c *Collection[K, V]) Materialize(key K, row Row) (V, error) {
	var zero V
	if err := c.codec.Validate(key); err != nil {
		return zero, err
	}

	if i, found := c.search(c.entries, key); found {
		v := c.entries[i].value
		if v.State() != Dropped {
			v.MarkExisting(row)
			return v, nil
		}

		// dropped is terminal, the reappearing entity gets a new handle
		nv, err := c.newMember(c.codec.Clone(key), Existing, row)
		if err != nil {
			return zero, err
		}
		c.entries[i].value = nv
		return nv, nil
	}

	if i, found := c.search(c.stale, key); found {
		e := c.stale[i]
		c.stale = slices.Delete(c.stale, i, i+1)
		if e.value.State() != Dropped {
			e.value.MarkExisting(row)
			return e.value, c.Insert(key, e.value)
		}
	}

	v, err := c.newMember(c.codec.Clone(key), Existing, row)
	if err != nil {
		return zero, err
	}
	return v, c.Insert(key, v)
}

// Remove deletes the entry for key. It does not touch the entity's children.
func (c *Collection[K, V]) Remove(key K) error {
	if err := c.codec.Validate(key); err != nil {
		return err
	}

	i, found := c.search(c.entries, key)
	if !found {
		return errors.Wrapf(ErrMissingObject, "[%s]", c.codec.Filter(key))
	}

	c.entries = slices.Delete(c.entries, i, i+1)
	c.generation++
	return nil
}

// MarkAllDropped marks every held entity dropped. Each entity cascades to its
// own children.
func (c *Collection[K, V]) MarkAllDropped() {
	for _, e := range c.entries {
		e.value.MarkDropped()
	}
	for _, e := range c.stale {
		e.value.MarkDropped()
	}
	c.stale = nil
}

// Refresh forgets the populated state so the next enumeration reloads from the
// Loader. Pending entities stay in place; the others are set aside until the
// reload decides whether they still exist.
func (c *Collection[K, V]) Refresh() {
	var kept, stale []entry[K, V]
	for _, e := range c.entries {
		if e.value.State() == Pending {
			kept = append(kept, e)
			continue
		}
		stale = append(stale, e)
	}

	for _, e := range stale {
		i, found := c.search(c.stale, e.key)
		if found {
			c.stale[i] = e
			continue
		}
		c.stale = slices.Insert(c.stale, i, e)
	}

	c.entries = kept
	c.populated = false
	c.generation++
}

func (c *Collection[K, V]) ensurePopulated(ctx context.Context) error {
	if c.populated || c.loader == nil {
		return nil
	}

	rows, err := c.loader.LoadAll(ctx)
	if err != nil {
		return errors.Wrap(err, "loading collection")
	}
	if err := c.materializeRows(rows); err != nil {
		return err
	}

	for _, e := range c.stale {
		e.value.MarkDropped()
	}
	c.stale = nil
	c.populated = true
	return nil
}

func (c *Collection[K, V]) materializeRows(rows []Row) error {
	for _, row := range rows {
		addr, err := row.Address()
		if err != nil {
			return err
		}
		key, err := c.codec.FromAddress(addr)
		if err != nil {
			return err
		}
		if _, err := c.Materialize(key, row); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection[K, V]) search(entries []entry[K, V], key K) (int, bool) {
	return slices.BinarySearchFunc(entries, key, func(e entry[K, V], k K) int {
		return c.cmp(e.key, k)
	})
}
