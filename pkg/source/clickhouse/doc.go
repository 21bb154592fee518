// Package clickhouse serves fetch requests from a live ClickHouse server.
//
// The server is the root of the tree. Databases come from system.databases,
// tables, views and dictionaries from system.tables (split by engine), and
// columns from system.columns. System databases are never reported.
//
// Addresses use the model.ClickHouse registry:
//
//	Server[@Name='ch01']/Database[@Name='analytics']/Table[@Name='events']/Column[@Name='ts']
package clickhouse
