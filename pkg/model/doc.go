// Package model holds the static descriptor tables of the supported server
// flavors.
//
// SQLServer mirrors a SQL Server instance: databases (with their own collation),
// schema-owned tables and views keyed by Schema and Name, agent jobs keyed by
// Name and an optional CategoryID, availability groups and the per-parent
// singletons (JobServer, DatabaseOptions, DefaultConstraint, ...).
//
// ClickHouse mirrors the system.databases, system.tables and system.columns
// catalog of a ClickHouse server.
package model
