// Package docker runs disposable ClickHouse servers through testcontainers.
//
// The servers back integration tests of the ClickHouse source: each test gets
// a fresh server, creates the databases it needs, and reads them back through
// the system tables.
//
//	server := docker.New(docker.Options{Version: "25.7"})
//	if err := server.Start(ctx); err != nil {
//		return err
//	}
//	defer server.Stop(ctx)
//
//	dsn, err := server.DSN(ctx)
//	if err != nil {
//		return err
//	}
//
// A config.d directory can be mounted to override server settings. WriteConfig
// produces a minimal one.
package docker
