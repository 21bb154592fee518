package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/collation"
	"github.com/pseudomuto/metatree/pkg/consts"
	"github.com/pseudomuto/metatree/pkg/urn"
)

// Lifecycle states. Pending entities exist only in memory, Existing ones were
// found in the data source and Dropped is terminal.
const (
	Pending State = iota
	Existing
	Dropped
)

type (
	// State is the lifecycle state of an entity.
	State int

	// Factory instantiates the in-memory representation of a newly resolved or
	// newly created entity.
	Factory interface {
		Instantiate(typ string, key Key, parent *Object) (*Object, error)
	}

	// FactoryFunc adapts a function to the Factory interface.
	FactoryFunc func(typ string, key Key, parent *Object) (*Object, error)

	// Env is the state shared by every entity under one root.
	Env struct {
		Fetcher    Fetcher
		Registry   *Registry
		Collations *collation.Cache
		Factory    Factory
		Logger     *slog.Logger
	}

	// Objects is the collection type used for entity children.
	Objects = Collection[Key, *Object]

	// Object is a live entity of the tree. Child collections and singletons are
	// created on first access.
	//
	// Objects are not safe for concurrent use; callers serialize access to a
	// subtree.
	Object struct {
		env         *Env
		desc        *Descriptor
		key         Key
		parent      *Object
		state       State
		props       Row
		collections map[string]*Objects
		singletons  map[string]*Object
	}

	objectLoader struct {
		parent *Object
		desc   *Descriptor
	}
)

// DefaultFactory instantiates plain Objects.
var DefaultFactory Factory = FactoryFunc(NewObject)

// Instantiate calls f.
func (f FactoryFunc) Instantiate(typ string, key Key, parent *Object) (*Object, error) {
	return f(typ, key, parent)
}

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Existing:
		return "Existing"
	case Dropped:
		return "Dropped"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// NewRoot creates the root entity named name. The root is Existing and row
// holds its fetched properties.
func NewRoot(env *Env, name string, row Row) *Object {
	if env.Factory == nil {
		env.Factory = DefaultFactory
	}
	if env.Logger == nil {
		env.Logger = slog.Default()
	}

	desc := env.Registry.RootDescriptor()
	o := &Object{
		env:   env,
		desc:  desc,
		key:   NewKey(desc, name),
		state: Existing,
		props: Row{},
	}
	o.merge(row)
	return o
}

// NewObject creates a pending entity of type typ under parent. It is the
// default Factory.
func NewObject(typ string, key Key, parent *Object) (*Object, error) {
	if parent == nil {
		return nil, errors.Errorf("%s has no parent", typ)
	}

	desc, err := parent.env.Registry.Child(parent.Type(), typ)
	if err != nil {
		return nil, err
	}

	return &Object{
		env:    parent.env,
		desc:   desc,
		key:    key.Clone(),
		parent: parent,
		state:  Pending,
		props:  Row{},
	}, nil
}

// Type returns the entity type.
func (o *Object) Type() string {
	return o.desc.Type
}

// Descriptor returns the entity type's descriptor.
func (o *Object) Descriptor() *Descriptor {
	return o.desc
}

// Key returns a copy of the entity key.
func (o *Object) Key() Key {
	return o.key.Clone()
}

// Name returns the Name key field or property.
func (o *Object) Name() string {
	if v, ok := o.key.Get(consts.NameAttribute); ok {
		return v
	}
	return o.props.Text(consts.NameAttribute)
}

// Parent returns the parent entity, nil for the root.
func (o *Object) Parent() *Object {
	return o.parent
}

// IsRoot reports whether o is the root entity.
func (o *Object) IsRoot() bool {
	return o.parent == nil
}

// Env returns the environment shared under o's root.
func (o *Object) Env() *Env {
	return o.env
}

// State returns the lifecycle state. A singleton that has not been dropped
// follows its parent.
func (o *Object) State() State {
	if o.desc.Singleton && o.state != Dropped {
		return o.parent.State()
	}
	return o.state
}

// Address returns the entity's full address, e.g.
// Server[@Name='PROD01']/Database[@Name='Sales'].
func (o *Object) Address() urn.Address {
	if o.parent == nil {
		return urn.New(urn.Segment{Type: o.desc.Type, Predicates: o.key.Predicates()})
	}
	if o.desc.Singleton {
		return o.parent.Address().Child(o.desc.Type)
	}
	return o.parent.Address().Child(o.desc.Type, o.key.Predicates()...)
}

// Property returns a fetched property or key field.
func (o *Object) Property(name string) (any, bool) {
	if v, ok := o.props[name]; ok {
		return v, true
	}
	if v, ok := o.key.Get(name); ok {
		return v, true
	}
	return nil, false
}

// Properties returns a copy of the fetched properties together with the key
// fields.
func (o *Object) Properties() Row {
	out := o.props.Clone()
	for _, p := range o.key.Predicates() {
		out[p.Attribute] = p.Value
	}
	delete(out, consts.UrnField)
	return out
}

// SetProperty sets a property. Key fields cannot be set.
func (o *Object) SetProperty(name string, value any) error {
	if _, ok := o.desc.Field(name); ok {
		return errors.Errorf("%s is a key field of %s", name, o.desc.Type)
	}
	o.props[name] = value
	return nil
}

// Policy returns the collation policy in effect for o: its own collation when
// its type defines a collation attribute that is set, else its parent's. The
// root uses its Collation property and the configured fallback otherwise.
func (o *Object) Policy() collation.Policy {
	if o.parent == nil {
		return o.env.Collations.Policy(o.rootCollation())
	}
	if attr := o.desc.CollationAttribute; attr != "" {
		if name := o.props.Text(attr); name != "" {
			return o.env.Collations.Policy(name)
		}
	}
	return o.parent.Policy()
}

func (o *Object) rootCollation() string {
	if name := o.props.Text(consts.CollationAttribute); name != "" {
		return name
	}
	if lcid, err := strconv.Atoi(o.props.Text(consts.LCIDAttribute)); err == nil {
		if name, ok := collation.NameForLCID(lcid); ok {
			return name
		}
	}
	return ""
}

// Collection returns the child collection of type typ, creating it on first
// access. Its comparer is fixed from o's effective collation at creation.
func (o *Object) Collection(typ string) (*Objects, error) {
	if c, ok := o.collections[typ]; ok {
		return c, nil
	}

	desc, err := o.env.Registry.Child(o.desc.Type, typ)
	if err != nil {
		return nil, err
	}
	if desc.Singleton {
		return nil, errors.Wrapf(ErrUnknownType, "%s is a singleton of %s", typ, o.desc.Type)
	}

	c := NewCollection(CollectionOptions[Key, *Object]{
		Codec:    DescriptorCodec{Descriptor: desc},
		Comparer: KeyComparer(o.Policy()),
		Loader:   objectLoader{parent: o, desc: desc},
		New: func(key Key, state State, row Row) (*Object, error) {
			child, err := o.env.Factory.Instantiate(desc.Type, key, o)
			if err != nil {
				return nil, errors.Wrapf(err, "instantiating %s", key)
			}
			if state == Existing {
				child.MarkExisting(row)
			}
			return child, nil
		},
	})

	if o.collections == nil {
		o.collections = make(map[string]*Objects)
	}
	o.collections[typ] = c
	o.env.Logger.Debug("collection created",
		"parent", o.Address().String(),
		"type", typ,
		"collation", o.Policy().Name())
	return c, nil
}

// Singleton returns the singleton child of type typ, creating it on first access.
func (o *Object) Singleton(typ string) (*Object, error) {
	if s, ok := o.singletons[typ]; ok {
		return s, nil
	}

	desc, err := o.env.Registry.Child(o.desc.Type, typ)
	if err != nil {
		return nil, err
	}
	if !desc.Singleton {
		return nil, errors.Wrapf(ErrUnknownType, "%s is not a singleton of %s", typ, o.desc.Type)
	}

	s, err := o.env.Factory.Instantiate(typ, NewKey(desc), o)
	if err != nil {
		return nil, errors.Wrapf(err, "instantiating %s", typ)
	}

	if o.singletons == nil {
		o.singletons = make(map[string]*Object)
	}
	o.singletons[typ] = s
	return s, nil
}

// MarkExisting moves a pending entity to Existing and merges row into its
// properties. It does nothing for dropped entities.
func (o *Object) MarkExisting(row Row) {
	if err := o.transition(Existing); err != nil {
		o.env.Logger.Debug("ignoring materialization", "address", o.Address().String(), "error", err)
		return
	}
	o.merge(row)
}

// MarkDropped moves o to Dropped and cascades to every materialized child
// collection and singleton. It is idempotent.
func (o *Object) MarkDropped() {
	if o.state == Dropped {
		return
	}
	_ = o.transition(Dropped)

	types := make([]string, 0, len(o.collections))
	for typ := range o.collections {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		o.collections[typ].MarkAllDropped()
	}

	types = types[:0]
	for typ := range o.singletons {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		o.singletons[typ].MarkDropped()
	}
}

// Drop marks o and its subtree dropped and removes o from its parent's
// collection. Dropping the root or an already dropped entity fails with
// ErrInvalidState.
func (o *Object) Drop() error {
	if o.parent == nil {
		return errors.Wrap(ErrInvalidState, "the root cannot be dropped")
	}
	if o.state == Dropped {
		return errors.Wrapf(ErrInvalidState, "%s is already dropped", o.Address())
	}
	o.MarkDropped()

	if c, ok := o.parent.collections[o.desc.Type]; ok {
		if held, found := c.Lookup(o.key); found && held == o {
			return c.Remove(o.key)
		}
	}
	return nil
}

// transition is the only place that changes state.
func (o *Object) transition(to State) error {
	from := o.state
	switch {
	case from == Dropped && to != Dropped:
		return errors.Wrapf(ErrInvalidState, "%s -> %s", from, to)
	case from == Existing && to == Pending:
		return errors.Wrapf(ErrInvalidState, "%s -> %s", from, to)
	}
	o.state = to
	return nil
}

func (o *Object) merge(row Row) {
	for k, v := range row {
		if k == consts.UrnField {
			continue
		}
		if _, ok := o.desc.Field(k); ok {
			continue
		}
		o.props[k] = v
	}
}

func (l objectLoader) LoadAll(ctx context.Context) ([]Row, error) {
	if l.parent.State() != Existing {
		return nil, nil
	}
	return l.parent.env.Fetcher.Fetch(ctx, Request{
		Pattern: l.parent.Address().Child(l.desc.Type),
		Fields:  l.desc.Properties(),
	})
}

func (l objectLoader) LoadKey(ctx context.Context, key Key) ([]Row, error) {
	if l.parent.State() != Existing {
		return nil, nil
	}
	return l.parent.env.Fetcher.Fetch(ctx, Request{
		Pattern: l.parent.Address().Child(l.desc.Type, key.Predicates()...),
		Fields:  l.desc.Properties(),
	})
}
