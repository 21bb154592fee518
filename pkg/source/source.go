package source

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/consts"
	"github.com/pseudomuto/metatree/pkg/urn"
)

// Match reports whether attrs satisfies every predicate of seg. Values are
// compared as text, case-insensitively when fold is set.
func Match(seg urn.Segment, attrs map[string]any, fold bool) bool {
	for _, p := range seg.Predicates {
		v, ok := attrs[p.Attribute]
		if !ok {
			return false
		}

		text := Text(v)
		if fold && !strings.EqualFold(text, p.Value) || !fold && text != p.Value {
			return false
		}
	}
	return true
}

// Text renders an attribute value for matching and addresses.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// KeyPredicates returns the key of an entity of type d as address predicates,
// in field order. Empty optional fields are omitted.
func KeyPredicates(d *catalog.Descriptor, attrs map[string]any) []urn.Predicate {
	values := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		values[i] = Text(attrs[f.Name])
	}
	return catalog.NewKey(d, values...).Predicates()
}

// Project builds the row for an entity at addr. A nil field list selects every
// attribute.
func Project(addr urn.Address, attrs map[string]any, fields []string) catalog.Row {
	row := catalog.Row{consts.UrnField: addr.String()}
	if fields == nil {
		for k, v := range attrs {
			row[k] = v
		}
		return row
	}

	for _, f := range fields {
		if v, ok := attrs[f]; ok {
			row[f] = v
		}
	}
	return row
}

// Sort orders rows by the given fields. Values that both parse as integers
// compare numerically, others as text; missing values sort first. The sort is
// stable, so rows equal on every field keep their source order.
func Sort(rows []catalog.Row, orderBy []catalog.OrderBy) {
	if len(orderBy) == 0 {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orderBy {
			c := compareValues(rows[i][o.Field], rows[j][o.Field])
			if o.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	ta, tb := Text(a), Text(b)
	x, errA := strconv.ParseInt(ta, 10, 64)
	y, errB := strconv.ParseInt(tb, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(ta, tb)
}
