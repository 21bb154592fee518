// Package memory implements a catalog.Fetcher over a YAML fixture tree. It is
// used by tests and by the import command, which snapshots a fixture into
// SQLite.
package memory
