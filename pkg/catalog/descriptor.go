package catalog

import (
	"slices"
	"sort"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/urn"
)

// Field kinds.
const (
	String Kind = iota
	Int
)

type (
	// Kind is the value kind of a key field. It selects how values are compared:
	// strings through the collation policy, integers numerically.
	Kind int

	// Field is one component of an entity key.
	Field struct {
		Name string
		Kind Kind

		// Optional fields are ignored by null checks and omitted from filters when
		// empty.
		Optional bool
	}

	// Descriptor statically describes one entity type: where it lives in the
	// tree, how it is keyed and which attributes it exposes.
	//
	// Example:
	//
	//	catalog.Descriptor{
	//		Type:                 "Table",
	//		Parents:              []string{"Database"},
	//		Fields:               []catalog.Field{{Name: "Schema"}, {Name: "Name"}},
	//		Attributes:           []string{"Owner", "CreateDate"},
	//		InfrastructureFields: []string{"Schema", "Name"},
	//	}
	Descriptor struct {
		// Type is the segment type name, e.g. Database.
		Type string

		// Parents lists the types this type can be a child of. Empty for the root.
		Parents []string

		// Fields is the ordered key. Field order decides comparison tie-breaks.
		Fields []Field

		// Attributes are the non-key properties that may be fetched and used in
		// address predicates.
		Attributes []string

		// InfrastructureFields is the minimal field set fetched when this type is
		// an intermediate level of a batch resolution.
		InfrastructureFields []string

		// CollationAttribute names the property holding a collation that overrides
		// the inherited one for this entity and its descendants.
		CollationAttribute string

		// Singleton types have exactly one instance per parent and no key.
		Singleton bool
	}

	// Registry holds the descriptors of one object model.
	Registry struct {
		root  string
		types map[string]*Descriptor
	}
)

// NewRegistry creates a registry whose tree is rooted at root.
func NewRegistry(root Descriptor) *Registry {
	r := &Registry{
		root:  root.Type,
		types: make(map[string]*Descriptor),
	}
	r.types[root.Type] = &root
	return r
}

// Register adds a descriptor. Every parent must already be registered.
func (r *Registry) Register(d Descriptor) error {
	if d.Type == "" {
		return errors.Wrap(ErrUnknownType, "descriptor has no type")
	}
	if _, ok := r.types[d.Type]; ok {
		return errors.Errorf("type %s registered twice", d.Type)
	}
	if len(d.Parents) == 0 {
		return errors.Errorf("type %s has no parent", d.Type)
	}
	if d.Singleton && len(d.Fields) > 0 {
		return errors.Errorf("singleton %s cannot have key fields", d.Type)
	}
	if !d.Singleton && len(d.Fields) == 0 {
		return errors.Errorf("type %s has no key fields", d.Type)
	}
	for _, p := range d.Parents {
		if _, ok := r.types[p]; !ok {
			return errors.Wrapf(ErrUnknownType, "parent %s of %s", p, d.Type)
		}
	}

	r.types[d.Type] = &d
	return nil
}

// MustRegister registers all descriptors, panicking on the first error. Used
// to build static model tables.
func (r *Registry) MustRegister(ds ...Descriptor) *Registry {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Root returns the root type name.
func (r *Registry) Root() string {
	return r.root
}

// RootDescriptor returns the root type's descriptor.
func (r *Registry) RootDescriptor() *Descriptor {
	return r.types[r.root]
}

// Descriptor returns the descriptor for typ.
func (r *Registry) Descriptor(typ string) (*Descriptor, bool) {
	d, ok := r.types[typ]
	return d, ok
}

// Child returns the descriptor for typ when it may be a child of parent.
func (r *Registry) Child(parent, typ string) (*Descriptor, error) {
	d, ok := r.types[typ]
	if !ok || typ == r.root {
		return nil, errors.Wrapf(ErrUnknownType, "%s", typ)
	}
	if !slices.Contains(d.Parents, parent) {
		return nil, errors.Wrapf(ErrUnknownType, "%s is not a child of %s", typ, parent)
	}
	return d, nil
}

// Children returns the sorted child types of parent.
func (r *Registry) Children(parent string) []string {
	var out []string
	for typ, d := range r.types {
		if slices.Contains(d.Parents, parent) {
			out = append(out, typ)
		}
	}
	sort.Strings(out)
	return out
}

// Types returns all registered type names, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.types))
	for typ := range r.types {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Validate checks that addr starts at the root, that every segment type may be
// a child of the previous one and that every predicate names a key field or an
// attribute of its segment type.
func (r *Registry) Validate(addr urn.Address) error {
	if addr.IsZero() {
		return errors.Wrap(urn.ErrInvalidAddress, "empty address")
	}

	segments := addr.Segments()
	if segments[0].Type != r.root {
		return errors.Wrapf(urn.ErrInvalidRoot, "%s starts at %s, expected %s", addr, segments[0].Type, r.root)
	}

	for i, seg := range segments {
		d := r.types[r.root]
		if i > 0 {
			var err error
			if d, err = r.Child(segments[i-1].Type, seg.Type); err != nil {
				return errors.Wrapf(err, "segment %d of %s", i, addr)
			}
		}

		for _, p := range seg.Predicates {
			if !d.HasAttribute(p.Attribute) {
				return errors.Wrapf(ErrUnknownAttribute, "@%s on %s in %s", p.Attribute, seg.Type, addr)
			}
		}
	}

	return nil
}

// Field returns the key field with the given name.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasAttribute reports whether name is a key field or an attribute of the type.
func (d *Descriptor) HasAttribute(name string) bool {
	if _, ok := d.Field(name); ok {
		return true
	}
	return slices.Contains(d.Attributes, name)
}

// Properties returns the names fetched when materializing an entity of this
// type: its key fields followed by its attributes.
func (d *Descriptor) Properties() []string {
	out := make([]string, 0, len(d.Fields)+len(d.Attributes))
	for _, f := range d.Fields {
		out = append(out, f.Name)
	}
	return append(out, d.Attributes...)
}

// PrimingFields returns the fields fetched when the type is an intermediate
// level of a batch resolution.
func (d *Descriptor) PrimingFields() []string {
	if len(d.InfrastructureFields) > 0 {
		return slices.Clone(d.InfrastructureFields)
	}

	out := make([]string, 0, len(d.Fields)+1)
	for _, f := range d.Fields {
		out = append(out, f.Name)
	}
	if d.CollationAttribute != "" {
		out = append(out, d.CollationAttribute)
	}
	return out
}
