package model

import (
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/consts"
)

// Flavor names accepted by ForFlavor.
const (
	FlavorSQLServer  = "sqlserver"
	FlavorClickHouse = "clickhouse"
)

var (
	name        = []catalog.Field{{Name: consts.NameAttribute}}
	schemaName  = []catalog.Field{{Name: consts.SchemaAttribute}, {Name: consts.NameAttribute}}
	rootFields  = catalog.Descriptor{Type: consts.RootType, Fields: name, Attributes: []string{consts.CollationAttribute, consts.LCIDAttribute, "Version", "Edition"}}
	schemaOwned = []string{"Owner", "CreateDate"}
)

// ForFlavor returns the registry of the named flavor.
func ForFlavor(flavor string) (*catalog.Registry, bool) {
	switch flavor {
	case FlavorSQLServer:
		return SQLServer(), true
	case FlavorClickHouse:
		return ClickHouse(), true
	default:
		return nil, false
	}
}

// SQLServer returns the object model of a SQL Server instance.
func SQLServer() *catalog.Registry {
	return catalog.NewRegistry(rootFields).MustRegister(
		// server level
		catalog.Descriptor{
			Type:                 "Database",
			Parents:              []string{consts.RootType},
			Fields:               name,
			Attributes:           []string{consts.CollationAttribute, "Owner", "CompatibilityLevel", "RecoveryModel", "Status"},
			InfrastructureFields: []string{consts.NameAttribute, consts.CollationAttribute},
			CollationAttribute:   consts.CollationAttribute,
		},
		catalog.Descriptor{Type: "Login", Parents: []string{consts.RootType}, Fields: name, Attributes: []string{"LoginType", "DefaultDatabase", "IsDisabled"}},
		catalog.Descriptor{Type: "Endpoint", Parents: []string{consts.RootType}, Fields: name, Attributes: []string{"EndpointType", "ProtocolType"}},
		catalog.Descriptor{Type: "LinkedServer", Parents: []string{consts.RootType}, Fields: name, Attributes: []string{"ProviderName", "DataSource"}},
		catalog.Descriptor{Type: "AvailabilityGroup", Parents: []string{consts.RootType}, Fields: name, Attributes: []string{"PrimaryReplicaServerName"}},
		catalog.Descriptor{Type: "Information", Parents: []string{consts.RootType}, Singleton: true, Attributes: []string{"Version", "Edition", "Platform"}},
		catalog.Descriptor{Type: "Settings", Parents: []string{consts.RootType}, Singleton: true, Attributes: []string{"LoginMode", "DefaultFile", "DefaultLog"}},
		catalog.Descriptor{Type: "UserOptions", Parents: []string{consts.RootType}, Singleton: true},
		catalog.Descriptor{Type: "ResourceGovernor", Parents: []string{consts.RootType}, Singleton: true, Attributes: []string{"Enabled"}},
		catalog.Descriptor{Type: "JobServer", Parents: []string{consts.RootType}, Singleton: true, Attributes: []string{"ServiceStartMode"}},

		// availability groups
		catalog.Descriptor{Type: "AvailabilityDatabase", Parents: []string{"AvailabilityGroup"}, Fields: name, Attributes: []string{"SynchronizationState"}},
		catalog.Descriptor{Type: "AvailabilityReplica", Parents: []string{"AvailabilityGroup"}, Fields: name, Attributes: []string{"Role", "AvailabilityMode"}},
		catalog.Descriptor{
			Type:       "DatabaseReplicaState",
			Parents:    []string{"AvailabilityGroup"},
			Fields:     []catalog.Field{{Name: "AvailabilityReplicaServerName"}, {Name: "AvailabilityDatabaseName"}},
			Attributes: []string{"SynchronizationState", "IsLocal"},
		},

		// agent
		catalog.Descriptor{
			Type:       "Job",
			Parents:    []string{"JobServer"},
			Fields:     []catalog.Field{{Name: consts.NameAttribute}, {Name: "CategoryID", Kind: catalog.Int, Optional: true}},
			Attributes: []string{"Category", "IsEnabled", "OwnerLoginName"},
		},
		catalog.Descriptor{Type: "Operator", Parents: []string{"JobServer"}, Fields: name, Attributes: []string{"EmailAddress"}},
		catalog.Descriptor{Type: "Alert", Parents: []string{"JobServer"}, Fields: name, Attributes: []string{"Severity", "MessageID"}},
		catalog.Descriptor{Type: "AlertSystem", Parents: []string{"JobServer"}, Singleton: true},

		// database level
		catalog.Descriptor{Type: "Table", Parents: []string{"Database"}, Fields: schemaName, Attributes: append([]string{"RowCount"}, schemaOwned...)},
		catalog.Descriptor{Type: "View", Parents: []string{"Database"}, Fields: schemaName, Attributes: schemaOwned},
		catalog.Descriptor{Type: "StoredProcedure", Parents: []string{"Database"}, Fields: schemaName, Attributes: schemaOwned},
		catalog.Descriptor{Type: "UserDefinedFunction", Parents: []string{"Database"}, Fields: schemaName, Attributes: append([]string{"FunctionType"}, schemaOwned...)},
		catalog.Descriptor{Type: "Schema", Parents: []string{"Database"}, Fields: name, Attributes: []string{"Owner"}},
		catalog.Descriptor{Type: "User", Parents: []string{"Database"}, Fields: name, Attributes: []string{"Login", "DefaultSchema"}},
		catalog.Descriptor{Type: "Role", Parents: []string{"Database"}, Fields: name, Attributes: []string{"Owner"}},
		catalog.Descriptor{Type: "DatabaseOptions", Parents: []string{"Database"}, Singleton: true, Attributes: []string{"AutoClose", "AutoShrink", "ReadOnly"}},
		catalog.Descriptor{Type: "QueryStoreOptions", Parents: []string{"Database"}, Singleton: true, Attributes: []string{"ActualState"}},
		catalog.Descriptor{Type: "ServiceBroker", Parents: []string{"Database"}, Singleton: true},
		catalog.Descriptor{Type: "MasterKey", Parents: []string{"Database"}, Singleton: true, Attributes: []string{"CreateDate"}},

		// table level
		catalog.Descriptor{Type: "Column", Parents: []string{"Table", "View"}, Fields: name, Attributes: []string{"DataType", "Nullable", "ID"}},
		catalog.Descriptor{Type: "Index", Parents: []string{"Table", "View"}, Fields: name, Attributes: []string{"IndexType", "IsUnique"}},
		catalog.Descriptor{Type: "Trigger", Parents: []string{"Table", "View"}, Fields: name, Attributes: []string{"IsEnabled"}},
		catalog.Descriptor{Type: "ForeignKey", Parents: []string{"Table"}, Fields: name, Attributes: []string{"ReferencedTable", "ReferencedTableSchema"}},
		catalog.Descriptor{Type: "Check", Parents: []string{"Table"}, Fields: name, Attributes: []string{"Text", "IsEnabled"}},
		catalog.Descriptor{Type: "DefaultConstraint", Parents: []string{"Column"}, Singleton: true, Attributes: []string{consts.NameAttribute, "Text"}},
	)
}

// ClickHouse returns the object model of a ClickHouse server. ClickHouse has no
// per-database collations; names compare case sensitively.
func ClickHouse() *catalog.Registry {
	return catalog.NewRegistry(rootFields).MustRegister(
		catalog.Descriptor{Type: "Database", Parents: []string{consts.RootType}, Fields: name, Attributes: []string{"Engine", "Comment"}},
		catalog.Descriptor{Type: "Table", Parents: []string{"Database"}, Fields: name, Attributes: []string{"Engine", "Comment", "TotalRows"}},
		catalog.Descriptor{Type: "View", Parents: []string{"Database"}, Fields: name, Attributes: []string{"Engine", "Comment"}},
		catalog.Descriptor{Type: "Dictionary", Parents: []string{"Database"}, Fields: name, Attributes: []string{"Comment"}},
		catalog.Descriptor{Type: "Column", Parents: []string{"Table", "View", "Dictionary"}, Fields: name, Attributes: []string{"DataType", "Position", "DefaultKind", "Comment"}},
	)
}
