// Package cmd implements the metatree command line.
//
// # Available Commands
//
//   - resolve: resolve one address and print the entity with its properties
//   - query: print every address matching a pattern, optionally with fields
//   - compare: order two addresses under the server's collations
//   - import: snapshot a YAML fixture into a SQLite database
//   - version: print build information
//
// # Configuration
//
// Commands read metatree.yaml from the working directory unless --config (or
// METATREE_CONFIG) names another file. Without a config file the sqlserver
// flavor and a memory source are assumed; --source then names the fixture.
//
// # Example Usage
//
//	metatree -s prod01.yaml resolve "Server/Database[@Name='Sales']"
//	metatree -s prod01.yaml query "Server/Database/Table" -f RowCount -o RowCount:desc
//	metatree -s prod01.yaml compare "Server/Database[@Name='HR']" "Server/Database[@Name='Sales']"
//	metatree import --fixture prod01.yaml --db prod01.db
//	metatree -c clickhouse.yaml query "Server/Database[@Name='analytics']/Table"
package cmd
