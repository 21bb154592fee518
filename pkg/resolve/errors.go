package resolve

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/urn"
)

var (
	// ErrInvalidRootAddress is returned when an address names a root other than
	// the resolver's.
	ErrInvalidRootAddress = errors.New("invalid root address")

	// ErrInvalidAddressQuery is returned when a batch resolution fails.
	ErrInvalidAddressQuery = errors.New("invalid address query")
)

// QueryError reports the level at which a batch resolution failed. It matches
// ErrInvalidAddressQuery with errors.Is and unwraps to the underlying cause, so
// a missing ancestor is both an ErrInvalidAddressQuery and a
// catalog.ErrMissingObject.
type QueryError struct {
	Depth   int
	Pattern urn.Address
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: depth %d (%s): %v", ErrInvalidAddressQuery, e.Depth, e.Pattern, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func (e *QueryError) Is(target error) bool {
	return target == ErrInvalidAddressQuery
}
