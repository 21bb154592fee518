// Package source holds the pieces shared by the catalog.Fetcher
// implementations in its subpackages: predicate matching, row projection and
// ordering, plus Instrument, a decorator that records Prometheus metrics and
// OpenTelemetry spans for every fetch.
//
// Implementations:
//   - memory: a YAML fixture held in memory
//   - sqlite: a catalog snapshot stored in SQLite
//   - clickhouse: a live ClickHouse server's system tables
package source
