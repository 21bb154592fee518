package catalog

import "github.com/pkg/errors"

var (
	// ErrMissingRequiredAttribute is returned when a key is derived from an
	// address whose last segment lacks a required key field.
	ErrMissingRequiredAttribute = errors.New("missing required attribute")

	// ErrUnsupportedIdentifier is returned when a key is structurally invalid,
	// e.g. a required field is empty or an integer field holds text.
	ErrUnsupportedIdentifier = errors.New("unsupported identifier")

	// ErrDuplicateKey is returned when inserting a key that compares equal to one
	// already held by a collection.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMissingObject is returned when a collection holds no entity for a key.
	ErrMissingObject = errors.New("missing object")

	// ErrUnknownType is returned for entity types (or parent/child pairings) the
	// registry does not define.
	ErrUnknownType = errors.New("unknown type")

	// ErrUnknownAttribute is returned when an address predicate names an
	// attribute its segment type does not define.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrInvalidState is returned for lifecycle transitions that are not allowed.
	ErrInvalidState = errors.New("invalid state transition")
)
