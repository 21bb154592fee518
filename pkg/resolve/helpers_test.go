package resolve_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/model"
	"github.com/pseudomuto/metatree/pkg/resolve"
	"github.com/pseudomuto/metatree/pkg/source/memory"
	"github.com/pseudomuto/metatree/pkg/urn"
	"github.com/stretchr/testify/require"
)

// countingFetcher records every request passed to the wrapped source.
type countingFetcher struct {
	next catalog.Fetcher

	mu       sync.Mutex
	patterns []string
}

func (f *countingFetcher) Fetch(ctx context.Context, req catalog.Request) ([]catalog.Row, error) {
	f.mu.Lock()
	f.patterns = append(f.patterns, req.Pattern.String())
	f.mu.Unlock()
	return f.next.Fetch(ctx, req)
}

func (f *countingFetcher) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.patterns)
}

func newResolver(t *testing.T, opts ...resolve.Option) (*resolve.Resolver, *countingFetcher) {
	t.Helper()

	src, err := memory.LoadFile("testdata/server.yaml", model.SQLServer())
	require.NoError(t, err)

	fetcher := &countingFetcher{next: src}
	return resolve.New(fetcher, model.SQLServer(), opts...), fetcher
}

func strs(addrs []urn.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}
