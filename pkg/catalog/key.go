package catalog

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/urn"
)

type (
	// Key is the composite identity of an entity among its siblings. Values are
	// held in the descriptor's field order; integer fields are stored in their
	// canonical decimal form.
	//
	// Keys are immutable values. Clone exists for callers that need a copy which
	// shares no memory with the original.
	Key struct {
		typ    string
		fields []Field
		values []string
	}

	// KeyCodec converts between addresses and keys of type K. Collections are
	// parameterized by a codec rather than knowing how keys are built.
	KeyCodec[K any] interface {
		// FromAddress derives a key from the last segment of addr.
		FromAddress(addr urn.Address) (K, error)

		// IsNull reports whether any required field of k is empty.
		IsNull(k K) bool

		// Clone returns a deep copy of k.
		Clone(k K) K

		// Validate fails with ErrUnsupportedIdentifier when k is null.
		Validate(k K) error

		// Filter renders k as a segment filter body.
		Filter(k K) string
	}

	// DescriptorCodec is the KeyCodec for Key values of a single descriptor.
	DescriptorCodec struct {
		Descriptor *Descriptor
	}
)

// NewKey builds a key for d from values given in field order. Missing trailing
// values are left empty. It panics when more values than fields are given.
//
// Example:
//
//	key := catalog.NewKey(tableDescriptor, "dbo", "Orders")
//	key.Filter() // @Schema='dbo' and @Name='Orders'
func NewKey(d *Descriptor, values ...string) Key {
	if len(values) > len(d.Fields) {
		panic("catalog: too many key values for " + d.Type)
	}

	k := Key{typ: d.Type, fields: d.Fields, values: make([]string, len(d.Fields))}
	for i, v := range values {
		k.values[i] = canonical(d.Fields[i], v)
	}
	return k
}

// KeyFromAddress derives a key for d from the predicates of the last segment of
// addr. Every required field must be present and non-empty; integer fields must
// hold integers.
func KeyFromAddress(d *Descriptor, addr urn.Address) (Key, error) {
	if addr.Type() != d.Type {
		return Key{}, errors.Wrapf(ErrUnknownType, "%s is not a %s address", addr, d.Type)
	}

	seg := addr.Last()
	k := Key{typ: d.Type, fields: d.Fields, values: make([]string, len(d.Fields))}
	for i, f := range d.Fields {
		v, ok := seg.Get(f.Name)
		if !ok || v == "" {
			if f.Optional {
				continue
			}
			return Key{}, errors.Wrapf(ErrMissingRequiredAttribute, "@%s of %s in %s", f.Name, d.Type, addr)
		}

		if f.Kind == Int {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return Key{}, errors.Wrapf(ErrUnsupportedIdentifier, "@%s of %s must be an integer, got %q", f.Name, d.Type, v)
			}
			v = strconv.Itoa(n)
		}
		k.values[i] = v
	}

	return k, nil
}

// Type returns the entity type the key belongs to.
func (k Key) Type() string {
	return k.typ
}

// Values returns a copy of the key values in field order.
func (k Key) Values() []string {
	return slices.Clone(k.values)
}

// Get returns the value of the named field.
func (k Key) Get(field string) (string, bool) {
	for i, f := range k.fields {
		if f.Name == field {
			return k.values[i], true
		}
	}
	return "", false
}

// Int returns the value of the named integer field.
func (k Key) Int(field string) (int, bool) {
	v, ok := k.Get(field)
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

// IsNull reports whether the key is the zero key or any required field is empty.
func (k Key) IsNull() bool {
	if k.typ == "" {
		return true
	}
	for i, f := range k.fields {
		if !f.Optional && k.values[i] == "" {
			return true
		}
	}
	return false
}

// Validate fails with ErrUnsupportedIdentifier when the key is null.
func (k Key) Validate() error {
	if k.typ == "" {
		return errors.Wrap(ErrUnsupportedIdentifier, "empty key")
	}
	for i, f := range k.fields {
		if !f.Optional && k.values[i] == "" {
			return errors.Wrapf(ErrUnsupportedIdentifier, "%s key field @%s is empty", k.typ, f.Name)
		}
	}
	return nil
}

// Clone returns a deep copy of the key.
func (k Key) Clone() Key {
	return Key{typ: k.typ, fields: slices.Clone(k.fields), values: slices.Clone(k.values)}
}

// Equal reports exact (ordinal) equality of type and values.
func (k Key) Equal(other Key) bool {
	return k.typ == other.typ && slices.Equal(k.values, other.values)
}

// Predicates returns the key as address predicates in field order. Empty
// optional fields are omitted.
func (k Key) Predicates() []urn.Predicate {
	out := make([]urn.Predicate, 0, len(k.fields))
	for i, f := range k.fields {
		if f.Optional && k.values[i] == "" {
			continue
		}
		out = append(out, urn.Predicate{Attribute: f.Name, Value: k.values[i]})
	}
	return out
}

// Filter renders the key as a segment filter body, e.g.
// @Schema='dbo' and @Name='Orders'.
func (k Key) Filter() string {
	return urn.FormatPredicates(k.Predicates())
}

// String renders the key as an address segment, e.g. Table[@Schema='dbo' and @Name='Orders'].
func (k Key) String() string {
	return urn.Segment{Type: k.typ, Predicates: k.Predicates()}.String()
}

func (c DescriptorCodec) FromAddress(addr urn.Address) (Key, error) {
	return KeyFromAddress(c.Descriptor, addr)
}

func (DescriptorCodec) IsNull(k Key) bool    { return k.IsNull() }
func (DescriptorCodec) Clone(k Key) Key      { return k.Clone() }
func (DescriptorCodec) Validate(k Key) error { return k.Validate() }
func (DescriptorCodec) Filter(k Key) string  { return k.Filter() }

func canonical(f Field, v string) string {
	if f.Kind != Int || v == "" {
		return v
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return strconv.Itoa(n)
	}
	return v
}
