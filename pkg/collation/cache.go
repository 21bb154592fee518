package collation

import (
	"log/slog"
	"strings"
	"sync"
)

type (
	// LookupFunc maps a collation name to an ordering policy.
	LookupFunc func(name string) (Policy, error)

	// Cache memoizes collation lookups for a single root. Entries are never
	// invalidated. Names that cannot be decoded map to the fallback policy.
	Cache struct {
		mu       sync.Mutex
		fallback Policy
		lookup   LookupFunc
		logger   *slog.Logger
		policies map[string]Policy
	}
)

// NewCache creates a cache that decodes names with lookup (Decode when nil) and
// falls back to fallback for empty or unknown names.
func NewCache(fallback Policy, lookup LookupFunc, logger *slog.Logger) *Cache {
	if lookup == nil {
		lookup = Decode
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		fallback: fallback,
		lookup:   lookup,
		logger:   logger,
		policies: make(map[string]Policy),
	}
}

// Fallback returns the policy used for empty or unknown names.
func (c *Cache) Fallback() Policy {
	return c.fallback
}

// Policy returns the ordering policy for name. Lookups are case-insensitive on
// the name and happen once per distinct name.
func (c *Cache) Policy(name string) Policy {
	if name == "" {
		return c.fallback
	}

	key := strings.ToLower(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.policies[key]; ok {
		return p
	}

	p, err := c.lookup(name)
	if err != nil {
		c.logger.Warn("unknown collation, using fallback",
			"collation", name,
			"fallback", c.fallback.Name(),
			"error", err)
		p = c.fallback
	}

	c.policies[key] = p
	return p
}

// Len returns the number of memoized names.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.policies)
}
