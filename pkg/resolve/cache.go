package resolve

import (
	"sort"

	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/urn"
)

type (
	// Cache maps fully qualified addresses to materialized entities, or to rows
	// fetched by a batch resolution that have not been materialized yet.
	//
	// Entries remember the generation of the collection owning their entity and
	// are discarded once that collection is refreshed or the entity is dropped.
	// The root segment's predicates are not part of the cache key; a cache
	// belongs to a single root.
	//
	// Cache is not safe for concurrent use.
	Cache struct {
		entries map[string]cacheEntry
	}

	cacheEntry struct {
		object     *catalog.Object
		row        catalog.Row
		owner      *catalog.Objects
		generation uint64
	}
)

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	clear(c.entries)
}

// Object returns the cached entity for addr.
func (c *Cache) Object(addr urn.Address) (*catalog.Object, bool) {
	e, ok := c.valid(addr)
	if !ok || e.object == nil {
		return nil, false
	}
	return e.object, true
}

// Row returns the cached, not yet materialized row for addr.
func (c *Cache) Row(addr urn.Address) (catalog.Row, bool) {
	e, ok := c.valid(addr)
	if !ok || e.object != nil {
		return nil, false
	}
	return e.row, true
}

// PutObject caches o under addr. owner is the collection holding o, nil for
// the root and singletons.
func (c *Cache) PutObject(addr urn.Address, o *catalog.Object, owner *catalog.Objects) {
	c.entries[cacheKey(addr)] = newEntry(o, nil, owner)
}

// PutRow caches a fetched row under addr. owner is the collection the row
// will be materialized into.
func (c *Cache) PutRow(addr urn.Address, row catalog.Row, owner *catalog.Objects) {
	key := cacheKey(addr)
	if e, ok := c.entries[key]; ok && e.object != nil {
		return
	}
	c.entries[key] = newEntry(nil, row, owner)
}

func newEntry(o *catalog.Object, row catalog.Row, owner *catalog.Objects) cacheEntry {
	e := cacheEntry{object: o, row: row, owner: owner}
	if owner != nil {
		e.generation = owner.Generation()
	}
	return e
}

func (c *Cache) valid(addr urn.Address) (cacheEntry, bool) {
	key := cacheKey(addr)
	e, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}

	stale := e.owner != nil && e.owner.Generation() != e.generation
	if e.object != nil && e.object.State() == catalog.Dropped {
		stale = true
	}
	if stale {
		delete(c.entries, key)
		return cacheEntry{}, false
	}
	return e, true
}

// cacheKey renders addr without root predicates and with every segment's
// predicates sorted by attribute.
func cacheKey(addr urn.Address) string {
	segments := addr.Segments()
	if len(segments) > 0 {
		segments[0].Predicates = nil
	}
	for i := range segments {
		sort.Slice(segments[i].Predicates, func(a, b int) bool {
			return segments[i].Predicates[a].Attribute < segments[i].Predicates[b].Attribute
		})
	}
	return urn.New(segments...).String()
}
