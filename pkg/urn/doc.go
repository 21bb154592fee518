// Package urn models hierarchical object addresses.
//
// An address names an entity in a server's metadata tree by walking from the
// root through typed segments, each optionally narrowed by ANDed equality
// predicates:
//
//	Server[@Name='PROD01']/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']/Column[@Name='Id']
//
// # Grammar
//
//	Address   = Segment ( '/' Segment )*
//	Segment   = Ident ( '[' Predicate ( 'and' Predicate )* ']' )?
//	Predicate = '@' Ident '=' ( String | Number )
//
// String literals are single-quoted and an embedded quote is written twice:
//
//	Database[@Name='O''Brien']
//
// Use Escape whenever a value is interpolated into address text by hand, or
// build addresses with Child and FormatPredicates which escape for you.
//
// # Parsing
//
//	addr, err := urn.Parse("Server/Database[@Name='Sales']")
//	if errors.Is(err, urn.ErrInvalidAddress) {
//		// malformed text
//	}
//
// Parse requires the first segment to be the root type (Server). Use
// NewParser to accept a different root.
//
// # Navigation
//
//	parent, ok := addr.Parent()            // drop last segment, ok is false at the root
//	name, ok := addr.Attr("Name")          // attribute of the last segment
//	schema, ok := addr.Attribute(2, "Schema")
//	child := addr.Child("Table", urn.Predicate{Attribute: "Name", Value: "Orders"})
//
// Addresses are values and never mutated in place; every navigation method
// returns a new Address.
package urn
