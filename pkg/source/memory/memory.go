package memory

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/source"
	"github.com/pseudomuto/metatree/pkg/urn"
	"gopkg.in/yaml.v3"
)

type (
	// Node is one entity of a fixture tree. Every key other than children is an
	// attribute of the entity.
	//
	// Example:
	//
	//	Name: PROD01
	//	Collation: SQL_Latin1_General_CP1_CI_AS
	//	children:
	//	  Database:
	//	    - Name: Sales
	//	      children:
	//	        Table:
	//	          - Schema: dbo
	//	            Name: Orders
	//	  JobServer:
	//	    - children:
	//	        Job:
	//	          - Name: nightly
	//	            CategoryID: 3
	Node struct {
		Attributes map[string]any     `yaml:",inline"`
		Children   map[string][]*Node `yaml:"children,omitempty"`
	}

	// Source serves fetches from a fixture tree.
	Source struct {
		root     *Node
		registry *catalog.Registry
		fold     bool
	}

	// Option configures a Source.
	Option func(*Source)

	// Visit describes an entity reached by Walk.
	Visit struct {
		Address    urn.Address
		Type       string
		Attributes map[string]any
	}

	match struct {
		node *Node
		addr urn.Address
	}
)

// CaseSensitive makes predicates match attribute values exactly. By default
// matching ignores case.
func CaseSensitive() Option {
	return func(s *Source) {
		s.fold = false
	}
}

// New creates a Source over root. registry supplies the key fields used to
// build each entity's address.
func New(root *Node, registry *catalog.Registry, opts ...Option) *Source {
	s := &Source{root: root, registry: registry, fold: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load decodes a YAML fixture.
func Load(r io.Reader, registry *catalog.Registry, opts ...Option) (*Source, error) {
	var root Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return nil, errors.Wrap(err, "failed to decode fixture")
	}
	return New(&root, registry, opts...), nil
}

// LoadFile decodes the YAML fixture at path.
func LoadFile(path string, registry *catalog.Registry, opts ...Option) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open fixture %s", path)
	}
	defer func() { _ = f.Close() }()

	return Load(f, registry, opts...)
}

// Fetch returns a row for every entity matched by req.Pattern.
func (s *Source) Fetch(ctx context.Context, req catalog.Request) ([]catalog.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Pattern.IsZero() {
		return nil, errors.Wrap(urn.ErrInvalidAddress, "empty pattern")
	}

	matches, err := s.match(req.Pattern)
	if err != nil {
		return nil, err
	}

	rows := make([]catalog.Row, len(matches))
	for i, m := range matches {
		rows[i] = source.Project(m.addr, m.node.Attributes, req.Fields)
	}
	source.Sort(rows, req.OrderBy)
	return rows, nil
}

// Walk visits every entity depth first, parents before children and child types
// in alphabetical order.
func (s *Source) Walk(fn func(Visit) error) error {
	rootAddr := s.rootAddress()
	if err := fn(Visit{Address: rootAddr, Type: s.registry.Root(), Attributes: s.root.Attributes}); err != nil {
		return err
	}
	return s.walk(s.root, s.registry.Root(), rootAddr, fn)
}

func (s *Source) walk(n *Node, typ string, addr urn.Address, fn func(Visit) error) error {
	for _, childType := range s.registry.Children(typ) {
		for _, child := range n.Children[childType] {
			childAddr, err := s.childAddress(addr, typ, childType, child)
			if err != nil {
				return err
			}
			if err := fn(Visit{Address: childAddr, Type: childType, Attributes: child.Attributes}); err != nil {
				return err
			}
			if err := s.walk(child, childType, childAddr, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Source) match(pattern urn.Address) ([]match, error) {
	segments := pattern.Segments()
	if segments[0].Type != s.registry.Root() {
		return nil, errors.Wrapf(urn.ErrInvalidRoot, "%s", pattern)
	}
	if !source.Match(segments[0], s.root.Attributes, s.fold) {
		return nil, nil
	}

	matches := []match{{node: s.root, addr: s.rootAddress()}}
	for i := 1; i < len(segments); i++ {
		seg, parentType := segments[i], segments[i-1].Type

		var next []match
		for _, m := range matches {
			for _, child := range m.node.Children[seg.Type] {
				if !source.Match(seg, child.Attributes, s.fold) {
					continue
				}
				addr, err := s.childAddress(m.addr, parentType, seg.Type, child)
				if err != nil {
					return nil, err
				}
				next = append(next, match{node: child, addr: addr})
			}
		}
		matches = next
	}
	return matches, nil
}

func (s *Source) rootAddress() urn.Address {
	desc := s.registry.RootDescriptor()
	return urn.New(urn.Segment{Type: desc.Type, Predicates: source.KeyPredicates(desc, s.root.Attributes)})
}

func (s *Source) childAddress(parent urn.Address, parentType, typ string, n *Node) (urn.Address, error) {
	desc, err := s.registry.Child(parentType, typ)
	if err != nil {
		return urn.Address{}, err
	}
	if desc.Singleton {
		return parent.Child(typ), nil
	}
	return parent.Child(typ, source.KeyPredicates(desc, n.Attributes)...), nil
}
