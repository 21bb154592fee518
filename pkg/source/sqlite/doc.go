// Package sqlite implements a catalog.Fetcher over a catalog snapshot stored
// in SQLite (modernc.org/sqlite, no cgo). Snapshots are produced with Import
// from a memory fixture, so a large tree can be queried without loading it.
package sqlite
