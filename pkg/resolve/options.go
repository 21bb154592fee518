package resolve

import (
	"log/slog"

	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/collation"
	"github.com/pseudomuto/metatree/pkg/consts"
)

type (
	// Option configures a Resolver.
	Option func(*options)

	options struct {
		logger           *slog.Logger
		factory          catalog.Factory
		defaultCollation string
		lookup           collation.LookupFunc
		primary          string
		secondary        string
	}
)

func defaultOptions() options {
	return options{
		logger:           slog.Default(),
		factory:          catalog.DefaultFactory,
		defaultCollation: consts.DefaultCollation,
		lookup:           collation.Decode,
		primary:          consts.NameAttribute,
		secondary:        consts.SchemaAttribute,
	}
}

// WithLogger sets the logger. Records carry the root_id attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFactory sets the factory used to instantiate entities.
func WithFactory(f catalog.Factory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithDefaultCollation sets the collation used when the root reports none, and
// for collation names that cannot be decoded. An empty name selects
// case-insensitive ordinal comparison.
func WithDefaultCollation(name string) Option {
	return func(o *options) {
		o.defaultCollation = name
	}
}

// WithCollationLookup replaces collation.Decode as the name to policy mapping.
func WithCollationLookup(fn collation.LookupFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.lookup = fn
		}
	}
}

// WithComparisonAttributes sets the primary identity attribute and the
// secondary disambiguating attribute used by CompareAddresses. The defaults
// are Name and Schema.
func WithComparisonAttributes(primary, secondary string) Option {
	return func(o *options) {
		o.primary = primary
		o.secondary = secondary
	}
}
