package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// RootType is the type name of the first segment of every address.
	RootType = "Server"

	// DefaultCollation is used for the root when the data source does not report one.
	DefaultCollation = "SQL_Latin1_General_CP1_CI_AS"

	// DefaultConfigFile is the configuration file looked up when --config is not given.
	DefaultConfigFile = "metatree.yaml"

	// UrnField is the row field every data source populates with the matched
	// entity's full address.
	UrnField = "Urn"

	// NameAttribute is the primary identity attribute of most entity types.
	NameAttribute = "Name"

	// SchemaAttribute qualifies schema-owned entities (tables, views, procedures).
	SchemaAttribute = "Schema"

	// CollationAttribute carries a collation name on entities that define one.
	CollationAttribute = "Collation"

	// LCIDAttribute carries the Windows locale id of a server that reports no
	// collation name.
	LCIDAttribute = "LCID"
)
