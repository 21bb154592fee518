package collation

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
)

type (
	// Policy is a named string-ordering function. Compare returns -1, 0 or 1.
	Policy interface {
		Name() string
		Compare(a, b string) int
	}

	ordinal struct {
		name       string
		ignoreCase bool
	}

	// collator wraps a collate.Collator, which keeps internal buffers and is not
	// safe for concurrent use.
	collator struct {
		name string
		mu   sync.Mutex
		c    *collate.Collator
	}
)

var (
	// Ordinal compares strings byte by byte.
	Ordinal Policy = ordinal{name: "Ordinal"}

	// OrdinalIgnoreCase compares the upper-cased forms of both strings byte by byte.
	OrdinalIgnoreCase Policy = ordinal{name: "OrdinalIgnoreCase", ignoreCase: true}
)

func (o ordinal) Name() string { return o.name }

func (o ordinal) Compare(a, b string) int {
	if o.ignoreCase {
		a, b = strings.ToUpper(a), strings.ToUpper(b)
	}
	return strings.Compare(a, b)
}

func (c *collator) Name() string { return c.name }

func (c *collator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.CompareString(a, b)
}
