package catalog

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/consts"
	"github.com/pseudomuto/metatree/pkg/urn"
)

type (
	// Row is one entity returned by a Fetcher. Every row carries the entity's
	// full address under consts.UrnField plus the requested fields.
	Row map[string]any

	// OrderBy sorts fetched rows by a field.
	OrderBy struct {
		Field      string
		Descending bool
	}

	// Request describes a fetch.
	//
	// Pattern is an address whose segments select entities: a segment with a
	// filter matches entities whose attributes equal every predicate, a segment
	// without one matches all entities of its type. Rows are returned for the
	// entities matched by the last segment.
	Request struct {
		Pattern urn.Address
		Fields  []string
		OrderBy []OrderBy
	}

	// Fetcher is the data source the catalog materializes entities from.
	Fetcher interface {
		Fetch(ctx context.Context, req Request) ([]Row, error)
	}

	// FetcherFunc adapts a function to the Fetcher interface.
	FetcherFunc func(ctx context.Context, req Request) ([]Row, error)
)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, req Request) ([]Row, error) {
	return f(ctx, req)
}

var rowParser = urn.NewParser("")

// Address parses the row's Urn field.
func (r Row) Address() (urn.Address, error) {
	v, ok := r[consts.UrnField]
	if !ok {
		return urn.Address{}, errors.Wrapf(urn.ErrInvalidAddress, "row has no %s field", consts.UrnField)
	}

	switch s := v.(type) {
	case string:
		return rowParser.Parse(s)
	case urn.Address:
		return s, nil
	default:
		return urn.Address{}, errors.Wrapf(urn.ErrInvalidAddress, "row %s field is a %T", consts.UrnField, v)
	}
}

// Text returns the named field formatted as a string, or "" when absent.
func (r Row) Text(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String renders the request for logs.
func (r Request) String() string {
	return fmt.Sprintf("%s fields=%v order=%v", r.Pattern, r.Fields, r.OrderBy)
}
